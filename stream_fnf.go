package rsocket

import (
	"context"

	"github.com/domsolutions/rsocket/rx"
)

// stream_fnf.go implements REQUEST_FNF (spec.md §4.4.2): the simplest
// interaction model, no stream entry survives past dispatch since
// there is no reply to correlate.

func (c *Connection) handleRequestFNFFrame(ctx context.Context, frh *FrameHeader, body *RequestFNF) error {
	id := frh.StreamID()

	metadata, data, hasMetadata, ok, err := c.maybeReassemble(id, FrameRequestFNF, body.Payload(), frh.Flags().Has(FlagFollows))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if c.handler == nil {
		return nil // spec.md §4.4.2: no acknowledgement is ever sent either way
	}

	go func() {
		if err := c.handler.FireAndForget(ctx, rx.Payload{Data: data, Metadata: metadata, HasMetadata: hasMetadata}); err != nil {
			c.logger.Warnf("rsocket: fire-and-forget handler error (not sent to peer): %v", err)
		}
	}()

	return nil
}

// FireAndForget is the requester-side API: sends a REQUEST_FNF with no
// expectation of any reply (spec.md §4.4.2).
func (c *Connection) FireAndForget(payload rx.Payload) error {
	if !c.consumeLease() {
		return ErrRSocketRejected
	}

	id := c.reserveStreamID()

	c.enqueueHead(id, payload.Data, payload.Metadata, payload.HasMetadata, func(p Payload, follows bool) Frame {
		req := AcquireRequestFNF()
		req.SetPayload(p)
		req.SetFollows(follows)
		return req
	})

	return nil
}
