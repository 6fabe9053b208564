package rsocket

// outbound.go is the single place every outbound payload-carrying send
// path funnels through, so fragmentation (spec.md §4.2 "Outbound") is
// applied once instead of at each of adapter.go's wireSubscriber and
// the four stream_*.go requester/responder send sites.

// enqueuePayload sends a PAYLOAD frame carrying data/metadata on
// streamID, splitting it across FOLLOWS-flagged continuation frames
// when it exceeds c.fragmentSize. next/complete are the logical
// signal's own flags and are only ever set on the final physical
// fragment — reassembly (maybeReassemble/FragmentCache) only consults
// the terminal fragment's flags, so earlier fragments never need them.
func (c *Connection) enqueuePayload(streamID uint32, data, metadata []byte, hasMetadata, next, complete bool) {
	pieces := splitFragments(metadata, data, hasMetadata, c.fragmentSize)
	last := len(pieces) - 1

	for i, piece := range pieces {
		frh := AcquireFrameHeader()
		frh.SetStreamID(streamID)

		pf := AcquirePayloadFrame()
		pf.SetFollows(piece.follows)
		if i == last {
			pf.SetNext(next)
			pf.SetComplete(complete)
		}
		pf.SetPayload(NewPayload(piece.data, piece.metadata, piece.hasMetadata))
		frh.SetBody(pf)
		c.enqueue(frh)
	}
}

// enqueueHead sends a request-initiating frame (REQUEST_RESPONSE,
// REQUEST_STREAM, REQUEST_FNF, REQUEST_CHANNEL) carrying data/metadata
// on streamID, fragmenting the same way enqueuePayload does: the first
// piece is built by buildHead into the frame type the caller wants,
// every later piece is a plain PAYLOAD continuation (spec.md §4.2:
// "a head frame ... plus N-1 continuation PAYLOAD frames").
func (c *Connection) enqueueHead(streamID uint32, data, metadata []byte, hasMetadata bool, buildHead func(p Payload, follows bool) Frame) {
	pieces := splitFragments(metadata, data, hasMetadata, c.fragmentSize)

	for i, piece := range pieces {
		frh := AcquireFrameHeader()
		frh.SetStreamID(streamID)

		p := NewPayload(piece.data, piece.metadata, piece.hasMetadata)
		if i == 0 {
			frh.SetBody(buildHead(p, piece.follows))
		} else {
			pf := AcquirePayloadFrame()
			pf.SetFollows(piece.follows)
			pf.SetPayload(p)
			frh.SetBody(pf)
		}
		c.enqueue(frh)
	}
}
