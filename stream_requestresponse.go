package rsocket

import (
	"context"

	"github.com/domsolutions/rsocket/rx"
)

// stream_requestresponse.go implements both sides of the
// REQUEST_RESPONSE interaction model (spec.md §4.4.1): responder
// dispatch on an inbound REQUEST_RESPONSE frame, and the requester-side
// RequestResponse API used by Client/await.go.

// handleRequestResponseFrame is the responder side: a peer opened a
// single-response stream. The handler runs on its own goroutine so a
// slow handler never blocks the read loop (spec.md §5).
func (c *Connection) handleRequestResponseFrame(ctx context.Context, frh *FrameHeader, body *RequestResponse) error {
	id := frh.StreamID()

	strm := c.getStream(id)
	if strm == nil {
		strm = c.insertResponderStream(id, InteractionRequestResponse)
	}

	metadata, data, hasMetadata, ok, err := c.maybeReassemble(id, FrameRequestResponse, body.Payload(), frh.Flags().Has(FlagFollows))
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

	go func() {
		reply, err := c.handler.RequestResponse(ctx, rx.Payload{Data: data, Metadata: metadata, HasMetadata: hasMetadata})
		if strm.Cancelled() {
			c.closeStream(id)
			return
		}
		if err != nil {
			c.sendErrorFrame(id, err)
			c.closeStream(id)
			return
		}

		c.enqueuePayload(id, reply.Data, reply.Metadata, reply.HasMetadata, true, true)
		c.closeStream(id)
	}()

	return nil
}

// RequestResponse is the requester-side API: sends a REQUEST_RESPONSE
// and delivers the single reply (or error) to sub. Returns immediately;
// the stream completes asynchronously via sub's callbacks (spec.md
// §4.3). See await.go for a future-returning convenience wrapper.
func (c *Connection) RequestResponse(payload rx.Payload, sub rx.Subscriber) {
	if !c.consumeLease() {
		sub.OnSubscribe(&wireSubscription{conn: c, streamID: 0})
		sub.OnError(ErrRSocketRejected)
		return
	}

	strm := c.allocateStream(InteractionRequestResponse)
	strm.SetSubscriber(sub)

	sub.OnSubscribe(&wireSubscription{conn: c, streamID: strm.ID()})

	c.enqueueHead(strm.ID(), payload.Data, payload.Metadata, payload.HasMetadata, func(p Payload, follows bool) Frame {
		req := AcquireRequestResponse()
		req.SetPayload(p)
		req.SetFollows(follows)
		return req
	})
}

func (c *Connection) sendErrorFrame(streamID uint32, err error) {
	frh := AcquireFrameHeader()
	frh.SetStreamID(streamID)
	ef := AcquireErrorFrame()
	if rerr, ok := err.(*RSocketError); ok {
		ef.SetCode(rerr.Code)
		ef.SetMessage(rerr.Message)
	} else {
		ef.SetCode(ErrorApplicationError)
		ef.SetMessage(err.Error())
	}
	frh.SetBody(ef)
	c.enqueue(frh)
}

func (c *Connection) rejectStream(streamID uint32, message string) error {
	c.sendErrorFrame(streamID, NewError(ErrorRejected, message))
	c.closeStream(streamID)
	return nil
}
