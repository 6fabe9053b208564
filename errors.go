package rsocket

import "fmt"

// ErrorCode is a wire-level RSocket error code, carried in ERROR frames.
//
// spec.md §4.9.
type ErrorCode uint32

const (
	ErrorInvalidSetup     ErrorCode = 0x00000001
	ErrorUnsupportedSetup ErrorCode = 0x00000002
	ErrorRejectedSetup    ErrorCode = 0x00000003
	ErrorRejectedResume   ErrorCode = 0x00000004
	ErrorConnectionError  ErrorCode = 0x00000101
	ErrorConnectionClose  ErrorCode = 0x00000102
	ErrorApplicationError ErrorCode = 0x00000201
	ErrorRejected         ErrorCode = 0x00000202
	ErrorCanceled         ErrorCode = 0x00000203
	ErrorInvalid          ErrorCode = 0x00000204
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorInvalidSetup:
		return "INVALID_SETUP"
	case ErrorUnsupportedSetup:
		return "UNSUPPORTED_SETUP"
	case ErrorRejectedSetup:
		return "REJECTED_SETUP"
	case ErrorRejectedResume:
		return "REJECTED_RESUME"
	case ErrorConnectionError:
		return "CONNECTION_ERROR"
	case ErrorConnectionClose:
		return "CONNECTION_CLOSE"
	case ErrorApplicationError:
		return "APPLICATION_ERROR"
	case ErrorRejected:
		return "REJECTED"
	case ErrorCanceled:
		return "CANCELED"
	case ErrorInvalid:
		return "INVALID"
	}
	return fmt.Sprintf("UNKNOWN(0x%x)", uint32(c))
}

// RSocketError is a wire error: an ErrorCode plus a human-readable
// message, either received on a stream/connection or about to be sent.
type RSocketError struct {
	Code    ErrorCode
	Message string
}

// NewError builds an RSocketError.
func NewError(code ErrorCode, message string) *RSocketError {
	return &RSocketError{Code: code, Message: message}
}

func (e *RSocketError) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Local errors: raised to the application (Subscriber.OnError, a
// rejected future) rather than encoded as wire ERROR frames, per
// spec.md §7.
var (
	// ErrMissingBytes is returned when a frame's payload is too short
	// for its declared type.
	ErrMissingBytes = fmt.Errorf("rsocket: frame payload too short")

	// ErrUnknownFrameType is returned by the decoder for a frame type
	// byte outside the known range.
	ErrUnknownFrameType = fmt.Errorf("rsocket: unknown frame type")

	// ErrFrameTooLarge is returned when a frame's declared or actual
	// length exceeds the negotiated maximum (spec.md §4.1).
	ErrFrameTooLarge = fmt.Errorf("rsocket: frame payload exceeds negotiated maximum size")

	// ErrFragmentDifferentType is returned by the fragment cache when a
	// continuation fragment's head type contradicts the first fragment
	// of the same stream (spec.md §4.2).
	ErrFragmentDifferentType = fmt.Errorf("rsocket: fragment type mismatch")

	// ErrRSocketRejected is the local error surfaced to a caller who
	// attempts a request while no lease quota remains (spec.md §4.5).
	ErrRSocketRejected = fmt.Errorf("rsocket: request rejected, no lease quota remaining")

	// ErrDisconnected is delivered to every live stream's subscriber
	// when the transport is lost (spec.md §7).
	ErrDisconnected = fmt.Errorf("rsocket: connection disconnected")

	// ErrStreamNotFound is the local error for frames referencing an
	// id with no live stream entry.
	ErrStreamNotFound = fmt.Errorf("rsocket: unknown stream id")

	// ErrEmptyRoute is returned by RouteRegistry when registering a
	// handler under an empty route string.
	ErrEmptyRoute = fmt.Errorf("rsocket: route must not be empty")

	// ErrDuplicateRoute is returned by RouteRegistry when a route is
	// registered twice.
	ErrDuplicateRoute = fmt.Errorf("rsocket: route already registered")

	// ErrNoRoute names the case of composite metadata carrying no
	// ROUTING entry. routing.RoutingRequestHandler reports that case as
	// an ErrorRejected RSocketError, not with this value.
	ErrNoRoute = fmt.Errorf("rsocket: no route found in request metadata")

	// ErrUnknownRoute names the case of a route with no handler and no
	// fallback. The routing package reports it with its own
	// routing.ErrUnknownRoute type, not with this value.
	ErrUnknownRoute = fmt.Errorf("rsocket: unknown route")

	// ErrAuthenticationRequired names the case of an authenticator being
	// configured while the request carries no authentication metadata.
	// routing.RoutingRequestHandler reports that case as an
	// ErrorRejected RSocketError, not with this value.
	ErrAuthenticationRequired = fmt.Errorf("rsocket: authentication required but not provided")
)
