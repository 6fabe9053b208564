package rsocket

import (
	"context"

	"github.com/domsolutions/rsocket/rx"
)

// BaseRequestHandler is the application-facing responder contract
// (spec.md §6 "Handler API"): one method per interaction model, called
// by the connection engine on its own goroutine per request (spec.md
// §5: "handler invocations run in their own goroutine").
//
// A handler that does not support a given interaction model should
// reject it (return an error, or for RequestStream/RequestChannel call
// the subscriber's OnError) rather than silently doing nothing.
type BaseRequestHandler interface {
	// OnSetup is invoked once, before any request frame, with the
	// peer's negotiated data/metadata mime types (spec.md §6 "Handler
	// API"). Returning an error rejects the SETUP with
	// ErrorRejectedSetup and closes the connection (spec.md §4.7).
	OnSetup(ctx context.Context, dataMime, metadataMime string) error

	// RequestResponse handles a REQUEST_RESPONSE stream, returning
	// exactly one payload or an error.
	RequestResponse(ctx context.Context, payload rx.Payload) (rx.Payload, error)

	// FireAndForget handles a REQUEST_FNF stream. Any returned error is
	// logged, never sent to the peer (spec.md §4.4.2: no acknowledgement).
	FireAndForget(ctx context.Context, payload rx.Payload) error

	// RequestStream handles a REQUEST_STREAM stream, emitting zero or
	// more payloads to sub.
	RequestStream(ctx context.Context, payload rx.Payload, sub rx.Subscriber)

	// RequestChannel handles a REQUEST_CHANNEL stream. requester is the
	// stream of payloads the initiator sends; the returned Publisher (if
	// non-nil) is subscribed to produce the responder's replies. A nil
	// return means the responder has nothing to say back (spec.md §9
	// Open Question: COMPLETE is still sent immediately in that case).
	RequestChannel(ctx context.Context, payload rx.Payload, requester rx.Publisher) rx.Publisher

	// MetadataPush handles a connection-level METADATA_PUSH.
	MetadataPush(ctx context.Context, metadata []byte)

	// OnClose is invoked once the connection has torn down, with the
	// reason it closed (nil on graceful shutdown).
	OnClose(reason error)
}

// UnimplementedHandler embeds into a handler implementation to get
// default behavior for any method the embedder doesn't override,
// mirroring the common "Unimplemented" gRPC/protoc pattern the
// handler-facing API is modeled on: RequestResponse, FireAndForget and
// RequestStream are rejected with ErrorRejected; RequestChannel returns
// nil, so the engine completes the channel at once; MetadataPush is
// ignored; OnSetup accepts every SETUP.
type UnimplementedHandler struct{}

func (UnimplementedHandler) OnSetup(context.Context, string, string) error { return nil }

func (UnimplementedHandler) RequestResponse(context.Context, rx.Payload) (rx.Payload, error) {
	return rx.Payload{}, NewError(ErrorRejected, "request-response not implemented")
}

func (UnimplementedHandler) FireAndForget(context.Context, rx.Payload) error {
	return NewError(ErrorRejected, "fire-and-forget not implemented")
}

func (UnimplementedHandler) RequestStream(_ context.Context, _ rx.Payload, sub rx.Subscriber) {
	sub.OnSubscribe(noopSubscription{})
	sub.OnError(NewError(ErrorRejected, "request-stream not implemented"))
}

func (UnimplementedHandler) RequestChannel(context.Context, rx.Payload, rx.Publisher) rx.Publisher {
	return nil
}

func (UnimplementedHandler) MetadataPush(context.Context, []byte) {}

func (UnimplementedHandler) OnClose(error) {}

type noopSubscription struct{}

func (noopSubscription) Request(int) {}
func (noopSubscription) Cancel()     {}

// RouteRegistry is an explicit builder mapping route strings to whole
// BaseRequestHandler values, resolving spec.md §9's note that
// "decorator-based route registration maps to an explicit builder" in
// a language without decorators.
//
// Grounded on original_source/rsocket/routing/request_router.py's
// RequestRouter, reshaped from a decorator-populated dict into
// Register/Lookup calls. Nothing else in this module consumes a
// RouteRegistry; rsocket/routing.RequestRouter keeps its own
// per-interaction-model route maps.
type RouteRegistry struct {
	handlers map[string]BaseRequestHandler
}

// NewRouteRegistry creates an empty registry.
func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{handlers: make(map[string]BaseRequestHandler)}
}

// Register binds route to handler. Registering the same route twice
// is an error (spec.md §9 testable property: duplicate-route
// rejection).
func (r *RouteRegistry) Register(route string, handler BaseRequestHandler) error {
	if route == "" {
		return ErrEmptyRoute
	}
	if _, exists := r.handlers[route]; exists {
		return ErrDuplicateRoute
	}
	r.handlers[route] = handler
	return nil
}

// Lookup returns the handler registered for route, if any.
func (r *RouteRegistry) Lookup(route string) (BaseRequestHandler, bool) {
	h, ok := r.handlers[route]
	return h, ok
}
