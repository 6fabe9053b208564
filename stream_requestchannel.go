package rsocket

import (
	"context"

	"github.com/domsolutions/rsocket/rx"
)

// stream_requestchannel.go implements REQUEST_CHANNEL (spec.md
// §4.4.4): a single stream id carrying two independent payload flows,
// requester->responder and responder->requester, each with its own
// credit accounting (Stream.remoteCredits tracks whichever direction
// *this* side is sending in).

func (c *Connection) handleRequestChannelFrame(ctx context.Context, frh *FrameHeader, body *RequestChannel) error {
	id := frh.StreamID()

	strm := c.getStream(id)
	if strm == nil {
		strm = c.insertResponderStream(id, InteractionRequestChannel)
		strm.AddRemoteCredits(body.InitialRequestN())
	}

	metadata, data, hasMetadata, ok, err := c.maybeReassemble(id, FrameRequestChannel, body.Payload(), frh.Flags().Has(FlagFollows))
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

	// requesterPublisher lets the handler subscribe to the requester's
	// ongoing inbound payloads (spec.md §9 "Open Question": a responder
	// that declines to subscribe still gets COMPLETE sent immediately).
	requesterPub := &wirePublisher{conn: c, stream: strm}
	if body.Complete() {
		strm.SetRequesterDone()
	}

	wireSub := &wireSubscriber{conn: c, streamID: id}

	go func() {
		responderPub := c.handler.RequestChannel(ctx, rx.Payload{Data: data, Metadata: metadata, HasMetadata: hasMetadata}, requesterPub)
		if responderPub == nil {
			// No reply stream: send COMPLETE immediately regardless of
			// the initial frame's own COMPLETE flag (resolved Open
			// Question, DESIGN.md).
			c.enqueuePayload(id, nil, nil, false, false, true)
			strm.SetResponderDone()
			c.maybeCloseChannel(strm)
			return
		}
		responderPub.Subscribe(wireSub)
	}()

	return nil
}

// RequestChannel is the requester-side API: opens a REQUEST_CHANNEL
// carrying first as the initial payload, subscribes sub to the
// responder's replies, and forwards outbound as the requester's own
// ongoing payload flow. outbound may be nil for a single-payload
// channel that completes immediately.
func (c *Connection) RequestChannel(first rx.Payload, initialN uint32, outbound rx.Publisher, sub rx.Subscriber) {
	if !c.consumeLease() {
		sub.OnSubscribe(&wireSubscription{conn: c, streamID: 0})
		sub.OnError(ErrRSocketRejected)
		return
	}

	strm := c.allocateStream(InteractionRequestChannel)
	strm.SetSubscriber(sub)

	sub.OnSubscribe(&wireSubscription{conn: c, streamID: strm.ID()})

	if outbound == nil {
		strm.SetResponderDone() // our own outbound direction is already done
		c.enqueueHead(strm.ID(), first.Data, first.Metadata, first.HasMetadata, func(p Payload, follows bool) Frame {
			req := AcquireRequestChannel()
			req.SetInitialRequestN(initialN)
			req.SetPayload(p)
			req.SetFollows(follows)
			req.SetComplete(true)
			return req
		})
		return
	}

	c.enqueueHead(strm.ID(), first.Data, first.Metadata, first.HasMetadata, func(p Payload, follows bool) Frame {
		req := AcquireRequestChannel()
		req.SetInitialRequestN(initialN)
		req.SetPayload(p)
		req.SetFollows(follows)
		return req
	})

	outbound.Subscribe(&wireSubscriber{conn: c, streamID: strm.ID()})
}

// maybeCloseChannel closes the stream entry once both directions of a
// REQUEST_CHANNEL have completed.
func (c *Connection) maybeCloseChannel(strm *Stream) {
	if strm.RequesterDone() && strm.ResponderDone() {
		c.closeStream(strm.ID())
	}
}
