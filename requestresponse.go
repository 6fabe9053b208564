package rsocket

import "sync"

var requestResponsePool = sync.Pool{
	New: func() interface{} { return &RequestResponse{} },
}

// RequestResponse is the REQUEST_RESPONSE frame: initiates a
// single-response stream (spec.md §4.4.1).
type RequestResponse struct {
	payload Payload
	follows bool
}

func AcquireRequestResponse() *RequestResponse {
	r := requestResponsePool.Get().(*RequestResponse)
	r.Reset()
	return r
}

func ReleaseRequestResponse(r *RequestResponse) { requestResponsePool.Put(r) }

func (r *RequestResponse) Type() FrameType { return FrameRequestResponse }
func (r *RequestResponse) Reset()          { r.payload.Reset(); r.follows = false }
func (r *RequestResponse) Payload() Payload { return r.payload }
func (r *RequestResponse) SetPayload(p Payload) { r.payload = p }

// Follows reports whether more fragments follow this one (spec.md §4.2).
func (r *RequestResponse) Follows() bool     { return r.follows }
func (r *RequestResponse) SetFollows(v bool) { r.follows = v }

func (r *RequestResponse) Deserialize(frh *FrameHeader) error {
	r.follows = frh.Flags().Has(FlagFollows)
	return decodePayload(&r.payload, frh.payload, frh.Flags().Has(FlagMetadata))
}

func (r *RequestResponse) Serialize(frh *FrameHeader) {
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
