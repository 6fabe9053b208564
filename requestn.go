package rsocket

import (
	"sync"

	"github.com/domsolutions/rsocket/internal/wire"
)

var requestNPool = sync.Pool{
	New: func() interface{} { return &RequestN{} },
}

// RequestN is the REQUEST_N frame: grants n additional credits to the
// responder of a stream (spec.md §3).
//
// Grounded on the teacher's WindowUpdate frame (windowupdate.go): both
// are a single 31 bit increment granting the peer permission to send
// more.
type RequestN struct {
	n uint32
}

func AcquireRequestN() *RequestN {
	r := requestNPool.Get().(*RequestN)
	r.Reset()
	return r
}

func ReleaseRequestN(r *RequestN) { requestNPool.Put(r) }

func (r *RequestN) Type() FrameType { return FrameRequestN }
func (r *RequestN) Reset()         { r.n = 0 }
func (r *RequestN) N() uint32      { return r.n }
func (r *RequestN) SetN(n uint32)  { r.n = n }

func (r *RequestN) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) < 4 {
		return ErrMissingBytes
	}
	r.n = wire.BytesToUint32(frh.payload) & (1<<31 - 1)
	return nil
}

func (r *RequestN) Serialize(frh *FrameHeader) {
	frh.setPayload(wire.AppendUint32(make([]byte, 0, 4), r.n))
}
