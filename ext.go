package rsocket

import (
	"sync"

	"github.com/domsolutions/rsocket/internal/wire"
)

var extPool = sync.Pool{
	New: func() interface{} { return &Ext{} },
}

// Ext is the EXT frame: a protocol extension escape hatch (spec.md §3).
//
// An unknown extType with IGNORE set is silently dropped by the
// connection engine; without IGNORE it is a connection error
// (spec.md §4 data model invariants on forward-compatible flags).
type Ext struct {
	extType uint32
	payload []byte
}

func AcquireExt() *Ext {
	e := extPool.Get().(*Ext)
	e.Reset()
	return e
}

func ReleaseExt(e *Ext) { extPool.Put(e) }

func (e *Ext) Type() FrameType      { return FrameExt }
func (e *Ext) Reset()               { e.extType = 0; e.payload = e.payload[:0] }
func (e *Ext) ExtType() uint32      { return e.extType }
func (e *Ext) SetExtType(t uint32)  { e.extType = t }
func (e *Ext) Payload() []byte      { return e.payload }
func (e *Ext) SetPayload(b []byte)  { e.payload = append(e.payload[:0], b...) }

func (e *Ext) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) < 4 {
		return ErrMissingBytes
	}
	e.extType = wire.BytesToUint32(frh.payload[0:4])
	e.payload = append(e.payload[:0], frh.payload[4:]...)
	return nil
}

func (e *Ext) Serialize(frh *FrameHeader) {
	buf := wire.AppendUint32(make([]byte, 0, 4+len(e.payload)), e.extType)
	buf = append(buf, e.payload...)
	frh.setPayload(buf)
}
