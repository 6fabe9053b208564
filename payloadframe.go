package rsocket

import "sync"

var payloadFramePool = sync.Pool{
	New: func() interface{} { return &PayloadFrame{} },
}

// PayloadFrame is the PAYLOAD frame: carries one data/metadata item on
// an existing stream, with NEXT/COMPLETE/FOLLOWS flags (spec.md §3).
//
// Named PayloadFrame (rather than Payload) to keep the wire frame
// distinct from the Payload value type it carries.
type PayloadFrame struct {
	next     bool
	complete bool
	follows  bool
	payload  Payload
}

func AcquirePayloadFrame() *PayloadFrame {
	p := payloadFramePool.Get().(*PayloadFrame)
	p.Reset()
	return p
}

func ReleasePayloadFrame(p *PayloadFrame) { payloadFramePool.Put(p) }

func (p *PayloadFrame) Type() FrameType { return FramePayload }
func (p *PayloadFrame) Reset() {
	p.next = false
	p.complete = false
	p.follows = false
	p.payload.Reset()
}

func (p *PayloadFrame) Next() bool          { return p.next }
func (p *PayloadFrame) SetNext(v bool)      { p.next = v }
func (p *PayloadFrame) Complete() bool      { return p.complete }
func (p *PayloadFrame) SetComplete(v bool)  { p.complete = v }
func (p *PayloadFrame) Follows() bool       { return p.follows }
func (p *PayloadFrame) SetFollows(v bool)   { p.follows = v }
func (p *PayloadFrame) Payload() Payload    { return p.payload }
func (p *PayloadFrame) SetPayload(pl Payload) { p.payload = pl }

func (p *PayloadFrame) Deserialize(frh *FrameHeader) error {
	p.next = frh.Flags().Has(FlagNext)
	p.complete = frh.Flags().Has(FlagComplete)
	p.follows = frh.Flags().Has(FlagFollows)
	return decodePayload(&p.payload, frh.payload, frh.Flags().Has(FlagMetadata))
}

func (p *PayloadFrame) Serialize(frh *FrameHeader) {
	flags := FrameFlags(0)
	if p.next {
		flags = flags.Add(FlagNext)
	}
	if p.complete {
		flags = flags.Add(FlagComplete)
	}
	if p.follows {
		flags = flags.Add(FlagFollows)
	}
	if p.payload.HasMetadata() {
		flags = flags.Add(FlagMetadata)
	}
	frh.SetFlags(flags)
	frh.setPayload(appendPayload(nil, p.payload))
}
