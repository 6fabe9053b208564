package rsocket

import (
	"context"

	"github.com/domsolutions/rsocket/rx"
)

// stream_requeststream.go implements REQUEST_STREAM (spec.md §4.4.3):
// one request, zero or more replies bounded by credit.

func (c *Connection) handleRequestStreamFrame(ctx context.Context, frh *FrameHeader, body *RequestStream) error {
	id := frh.StreamID()

	strm := c.getStream(id)
	if strm == nil {
		strm = c.insertResponderStream(id, InteractionRequestStream)
		strm.AddRemoteCredits(body.InitialRequestN())
	}

	metadata, data, hasMetadata, ok, err := c.maybeReassemble(id, FrameRequestStream, body.Payload(), frh.Flags().Has(FlagFollows))
	if err != nil {
		c.closeStream(id)
		return err
	}
	if !ok {
		return nil
	}

	if c.handler == nil {
		return c.rejectStream(id, "no handler registered")
	}

	wireSub := &wireSubscriber{conn: c, streamID: id}
	go c.handler.RequestStream(ctx, rx.Payload{Data: data, Metadata: metadata, HasMetadata: hasMetadata}, wireSub)

	return nil
}

// RequestStream is the requester-side API: sends a REQUEST_STREAM with
// initialN units of initial demand and delivers replies to sub.
func (c *Connection) RequestStream(payload rx.Payload, initialN uint32, sub rx.Subscriber) {
	if !c.consumeLease() {
		sub.OnSubscribe(&wireSubscription{conn: c, streamID: 0})
		sub.OnError(ErrRSocketRejected)
		return
	}

	strm := c.allocateStream(InteractionRequestStream)
	strm.SetSubscriber(sub)

	sub.OnSubscribe(&wireSubscription{conn: c, streamID: strm.ID()})

	c.enqueueHead(strm.ID(), payload.Data, payload.Metadata, payload.HasMetadata, func(p Payload, follows bool) Frame {
		req := AcquireRequestStream()
		req.SetInitialRequestN(initialN)
		req.SetPayload(p)
		req.SetFollows(follows)
		return req
	})
}
