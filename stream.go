package rsocket

import "github.com/domsolutions/rsocket/rx"

// InteractionModel identifies which of the four request shapes a
// stream is running (spec.md §1).
type InteractionModel int8

const (
	InteractionRequestResponse InteractionModel = iota
	InteractionFireAndForget
	InteractionRequestStream
	InteractionRequestChannel
)

// StreamState is a stream entry's lifecycle state (spec.md §3).
type StreamState int8

const (
	StreamStateOpen StreamState = iota
	StreamStateLocalComplete  // our direction is done, peer's may continue
	StreamStateRemoteComplete // peer's direction is done, ours may continue
	StreamStateClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamStateOpen:
		return "Open"
	case StreamStateLocalComplete:
		return "LocalComplete"
	case StreamStateRemoteComplete:
		return "RemoteComplete"
	case StreamStateClosed:
		return "Closed"
	}
	return "Unknown"
}

// Stream is one live stream entry in a connection's stream table
// (spec.md §3 "Stream entry").
//
// Directly adapted from the teacher's Stream (stream.go): same id +
// state + a generic per-model payload ("data" there, typed fields
// here) shape, because RSocket's invariant ("stream IDs assigned
// monotonically increasing, one entry per live id") is identical to
// HTTP/2's.
type Stream struct {
	id    uint32
	model InteractionModel
	state StreamState

	// remoteCredits is how many PAYLOAD(NEXT) frames we may still send
	// the peer on this stream (our outbound demand budget).
	remoteCredits int64

	publisher  rx.Publisher
	subscriber rx.Subscriber

	// publisherSubscription is the Subscription a local producer handed
	// the engine via wireSubscriber.OnSubscribe, so wire REQUEST_N/CANCEL
	// frames from the peer can be forwarded into it (adapter.go).
	publisherSubscription rx.Subscription

	// requesterDone/responderDone track independent completion of each
	// direction of a REQUEST_CHANNEL stream (spec.md §4.4.4), from this
	// side's point of view: requesterDone means "the peer's inbound
	// payload flow to us has completed", responderDone means "our own
	// outbound payload flow has completed" — named for the frame
	// direction each represents, not for which side opened the channel.
	requesterDone bool
	responderDone bool

	cancelled bool
}

// NewStream creates a stream table entry.
func NewStream(id uint32, model InteractionModel) *Stream {
	return &Stream{id: id, model: model, state: StreamStateOpen}
}

func (s *Stream) ID() uint32                  { return s.id }
func (s *Stream) Model() InteractionModel     { return s.model }
func (s *Stream) State() StreamState          { return s.state }
func (s *Stream) SetState(state StreamState) { s.state = state }
func (s *Stream) RemoteCredits() int64        { return s.remoteCredits }
func (s *Stream) AddRemoteCredits(n uint32)   { s.remoteCredits += int64(n) }

// ConsumeRemoteCredit consumes one unit of outbound demand, reporting
// whether any remained.
func (s *Stream) ConsumeRemoteCredit() bool {
	if s.remoteCredits <= 0 {
		return false
	}
	s.remoteCredits--
	return true
}

func (s *Stream) Publisher() rx.Publisher         { return s.publisher }
func (s *Stream) SetPublisher(p rx.Publisher)     { s.publisher = p }
func (s *Stream) Subscriber() rx.Subscriber       { return s.subscriber }
func (s *Stream) SetSubscriber(sub rx.Subscriber) { s.subscriber = sub }

func (s *Stream) PublisherSubscription() rx.Subscription     { return s.publisherSubscription }
func (s *Stream) SetPublisherSubscription(sub rx.Subscription) { s.publisherSubscription = sub }

func (s *Stream) RequesterDone() bool { return s.requesterDone }
func (s *Stream) SetRequesterDone()   { s.requesterDone = true }
func (s *Stream) ResponderDone() bool { return s.responderDone }
func (s *Stream) SetResponderDone()   { s.responderDone = true }

func (s *Stream) Cancelled() bool { return s.cancelled }
func (s *Stream) SetCancelled()   { s.cancelled = true }

// IsClientInitiated reports whether id belongs to the odd (client)
// space, per spec.md §3 stream id invariants.
func IsClientInitiated(id uint32) bool { return id%2 == 1 }
