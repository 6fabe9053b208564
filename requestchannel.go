package rsocket

import (
	"sync"

	"github.com/domsolutions/rsocket/internal/wire"
)

var requestChannelPool = sync.Pool{
	New: func() interface{} { return &RequestChannel{} },
}

// RequestChannel is the REQUEST_CHANNEL frame: opens a symmetric,
// bidirectional stream carrying the first outbound payload plus
// initial credit for the responder's replies (spec.md §4.4.4).
type RequestChannel struct {
	initialRequestN uint32
	complete        bool
	payload         Payload
	follows         bool
}

func AcquireRequestChannel() *RequestChannel {
	r := requestChannelPool.Get().(*RequestChannel)
	r.Reset()
	return r
}

func ReleaseRequestChannel(r *RequestChannel) { requestChannelPool.Put(r) }

func (r *RequestChannel) Type() FrameType { return FrameRequestChannel }
func (r *RequestChannel) Reset() {
	r.initialRequestN = 0
	r.complete = false
	r.payload.Reset()
	r.follows = false
}
func (r *RequestChannel) InitialRequestN() uint32     { return r.initialRequestN }
func (r *RequestChannel) SetInitialRequestN(n uint32) { r.initialRequestN = n }
func (r *RequestChannel) Complete() bool              { return r.complete }
func (r *RequestChannel) SetComplete(v bool)          { r.complete = v }
func (r *RequestChannel) Payload() Payload            { return r.payload }
func (r *RequestChannel) SetPayload(p Payload)        { r.payload = p }

// Follows reports whether more fragments follow this one (spec.md §4.2).
func (r *RequestChannel) Follows() bool     { return r.follows }
func (r *RequestChannel) SetFollows(v bool) { r.follows = v }

func (r *RequestChannel) Deserialize(frh *FrameHeader) error {
	b := frh.payload
	if len(b) < 4 {
		return ErrMissingBytes
	}
	r.initialRequestN = wire.BytesToUint32(b[0:4]) & (1<<31 - 1)
	r.complete = frh.Flags().Has(FlagComplete)
	r.follows = frh.Flags().Has(FlagFollows)
	return decodePayload(&r.payload, b[4:], frh.Flags().Has(FlagMetadata))
}

func (r *RequestChannel) Serialize(frh *FrameHeader) {
	buf := wire.AppendUint32(make([]byte, 0, 4), r.initialRequestN)

	flags := FrameFlags(0)
	if r.complete {
		flags = flags.Add(FlagComplete)
	}
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
