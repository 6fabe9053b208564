package rsocket

import "sync"

var requestFNFPool = sync.Pool{
	New: func() interface{} { return &RequestFNF{} },
}

// RequestFNF is the REQUEST_FNF frame: a fire-and-forget request with
// no acknowledgement (spec.md §4.4.2).
type RequestFNF struct {
	payload Payload
	follows bool
}

func AcquireRequestFNF() *RequestFNF {
	r := requestFNFPool.Get().(*RequestFNF)
	r.Reset()
	return r
}

func ReleaseRequestFNF(r *RequestFNF) { requestFNFPool.Put(r) }

func (r *RequestFNF) Type() FrameType        { return FrameRequestFNF }
func (r *RequestFNF) Reset()                 { r.payload.Reset(); r.follows = false }
func (r *RequestFNF) Payload() Payload       { return r.payload }
func (r *RequestFNF) SetPayload(p Payload)   { r.payload = p }

// Follows reports whether more fragments follow this one (spec.md §4.2).
func (r *RequestFNF) Follows() bool     { return r.follows }
func (r *RequestFNF) SetFollows(v bool) { r.follows = v }

func (r *RequestFNF) Deserialize(frh *FrameHeader) error {
	r.follows = frh.Flags().Has(FlagFollows)
	return decodePayload(&r.payload, frh.payload, frh.Flags().Has(FlagMetadata))
}

func (r *RequestFNF) Serialize(frh *FrameHeader) {
	flags := FrameFlags(0)
	if r.payload.HasMetadata() {
		flags = flags.Add(FlagMetadata)
	}
	if r.follows {
		flags = flags.Add(FlagFollows)
	}
	frh.SetFlags(flags)
	frh.setPayload(appendPayload(nil, r.payload))
}
