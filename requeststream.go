package rsocket

import (
	"sync"

	"github.com/domsolutions/rsocket/internal/wire"
)

var requestStreamPool = sync.Pool{
	New: func() interface{} { return &RequestStream{} },
}

// RequestStream is the REQUEST_STREAM frame: initiates a stream of
// zero or more payloads bounded by initialRequestN of initial credit
// (spec.md §4.4.3).
type RequestStream struct {
	initialRequestN uint32
	payload         Payload
	follows         bool
}

func AcquireRequestStream() *RequestStream {
	r := requestStreamPool.Get().(*RequestStream)
	r.Reset()
	return r
}

func ReleaseRequestStream(r *RequestStream) { requestStreamPool.Put(r) }

func (r *RequestStream) Type() FrameType { return FrameRequestStream }
func (r *RequestStream) Reset() {
	r.initialRequestN = 0
	r.payload.Reset()
	r.follows = false
}
func (r *RequestStream) InitialRequestN() uint32     { return r.initialRequestN }
func (r *RequestStream) SetInitialRequestN(n uint32) { r.initialRequestN = n }
func (r *RequestStream) Payload() Payload            { return r.payload }
func (r *RequestStream) SetPayload(p Payload)        { r.payload = p }

// Follows reports whether more fragments follow this one (spec.md §4.2).
func (r *RequestStream) Follows() bool     { return r.follows }
func (r *RequestStream) SetFollows(v bool) { r.follows = v }

func (r *RequestStream) Deserialize(frh *FrameHeader) error {
	b := frh.payload
	if len(b) < 4 {
		return ErrMissingBytes
	}
	r.initialRequestN = wire.BytesToUint32(b[0:4]) & (1<<31 - 1)
	r.follows = frh.Flags().Has(FlagFollows)
	return decodePayload(&r.payload, b[4:], frh.Flags().Has(FlagMetadata))
}

func (r *RequestStream) Serialize(frh *FrameHeader) {
	buf := wire.AppendUint32(make([]byte, 0, 4), r.initialRequestN)

	flags := FrameFlags(0)
	if r.payload.HasMetadata() {
		flags = flags.Add(FlagMetadata)
	}
	if r.follows {
		flags = flags.Add(FlagFollows)
	}
	buf = appendPayload(buf, r.payload)

	frh.SetFlags(flags)
	frh.setPayload(buf)
}
