package rsocket

import (
	"sync"

	"github.com/domsolutions/rsocket/internal/wire"
	"github.com/valyala/fastrand"
)

var keepaliveFramePool = sync.Pool{
	New: func() interface{} { return &Keepalive{} },
}

// Keepalive is the KEEPALIVE frame: a liveness probe carrying the
// sender's last-observed resume position and optional opaque data
// (spec.md §3, §4.6).
//
// Grounded on the teacher's Ping frame (ping.go): same "respond" /
// "ack" flag role, same fixed-plus-opaque-data body shape.
type Keepalive struct {
	respond      bool
	lastPosition uint64
	data         []byte
}

// AcquireKeepalive returns a pooled, reset Keepalive frame.
func AcquireKeepalive() *Keepalive {
	k := keepaliveFramePool.Get().(*Keepalive)
	k.Reset()
	return k
}

// ReleaseKeepalive returns k to the pool.
func ReleaseKeepalive(k *Keepalive) { keepaliveFramePool.Put(k) }

func (k *Keepalive) Type() FrameType { return FrameKeepalive }

func (k *Keepalive) Reset() {
	k.respond = false
	k.lastPosition = 0
	k.data = k.data[:0]
}

func (k *Keepalive) Respond() bool          { return k.respond }
func (k *Keepalive) SetRespond(v bool)      { k.respond = v }
func (k *Keepalive) LastPosition() uint64   { return k.lastPosition }
func (k *Keepalive) SetLastPosition(p uint64) { k.lastPosition = p }
func (k *Keepalive) Data() []byte           { return k.data }
func (k *Keepalive) SetData(b []byte)       { k.data = append(k.data[:0], b...) }

func (k *Keepalive) Deserialize(frh *FrameHeader) error {
	b := frh.payload
	if len(b) < 8 {
		return ErrMissingBytes
	}
	k.respond = frh.Flags().Has(FlagRespond)
	k.lastPosition = uint64(wire.BytesToUint32(b[0:4]))<<32 | uint64(wire.BytesToUint32(b[4:8]))
	k.data = append(k.data[:0], b[8:]...)
	return nil
}

func (k *Keepalive) Serialize(frh *FrameHeader) {
	buf := make([]byte, 0, 8+len(k.data))
	buf = wire.AppendUint32(buf, uint32(k.lastPosition>>32))
	buf = wire.AppendUint32(buf, uint32(k.lastPosition))
	buf = append(buf, k.data...)

	flags := FrameFlags(0)
	if k.respond {
		flags = flags.Add(FlagRespond)
	}
	frh.SetFlags(flags)
	frh.setPayload(buf)
}

// keepaliveJitter returns a small random offset (0-250ms, via fastrand
// exactly as the teacher's http2utils.AddPadding draws its padding
// length) added to the keepalive interval so that many connections
// opened at once don't all probe in lockstep.
func keepaliveJitter() int {
	return int(fastrand.Uint32n(250))
}
