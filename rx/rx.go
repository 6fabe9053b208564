// Package rx is the transport-agnostic reactive-streams-style seam
// between the protocol engine and application handlers (spec.md §4.3,
// §9: "Publisher/Subscriber reactive abstraction maps to a small
// interface of four methods; language-specific reactive libraries are
// adapters over this core interface, never part of the engine.").
//
// Grounded on the teacher's channel-driven ClientStream (client.go in
// the http2 engine): a publisher/subscription pair backed by buffered
// Go channels plays the same role there, just without the formal
// interface boundary this package adds.
package rx

// Payload is the minimal value a Publisher emits to a Subscriber: an
// opaque data section, an optional metadata section, and whether this
// item is itself the terminal signal (spec.md §4.3: "Default
// subscribers treat is_complete=True on on_next as the terminal
// signal").
type Payload struct {
	Data        []byte
	Metadata    []byte
	HasMetadata bool
	Complete    bool
}

// Subscription is returned to a Subscriber via OnSubscribe. Request
// adds n to the subscriber's demand; Cancel asks the Publisher to stop
// emitting (spec.md §4.3).
type Subscription interface {
	// Request grants n additional items of demand. n must be > 0.
	Request(n int)
	// Cancel asks the publisher to stop. Further OnNext calls after
	// Cancel are permitted by the contract but must be ignored by the
	// subscriber.
	Cancel()
}

// Subscriber receives signals from a Publisher in the order:
// OnSubscribe, then zero or more OnNext, then at most one of
// OnComplete or OnError (spec.md §4.3, §8 testable property).
type Subscriber interface {
	OnSubscribe(s Subscription)
	OnNext(p Payload)
	OnComplete()
	OnError(err error)
}

// Publisher emits a sequence of Payloads to a single Subscriber,
// honoring that Subscriber's requested demand (spec.md §4.3).
type Publisher interface {
	Subscribe(sub Subscriber)
}
