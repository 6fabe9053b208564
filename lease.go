package rsocket

import (
	"sync"
	"time"

	"github.com/domsolutions/rsocket/internal/wire"
	"github.com/jonboulle/clockwork"
)

var leasePool = sync.Pool{
	New: func() interface{} { return &Lease{} },
}

// Lease is the LEASE frame: a grant of numberOfRequests requests valid
// for timeToLive milliseconds, sent on stream 0 (spec.md §3, §4.5).
type Lease struct {
	numberOfRequests uint32
	timeToLive       uint32 // milliseconds
	payload          Payload
}

// AcquireLease returns a pooled, reset Lease frame.
func AcquireLease() *Lease {
	l := leasePool.Get().(*Lease)
	l.Reset()
	return l
}

// ReleaseLease returns l to the pool.
func ReleaseLease(l *Lease) { leasePool.Put(l) }

func (l *Lease) Type() FrameType { return FrameLease }

func (l *Lease) Reset() {
	l.numberOfRequests = 0
	l.timeToLive = 0
	l.payload.Reset()
}

func (l *Lease) NumberOfRequests() uint32     { return l.numberOfRequests }
func (l *Lease) SetNumberOfRequests(n uint32) { l.numberOfRequests = n }
func (l *Lease) TimeToLive() uint32           { return l.timeToLive }
func (l *Lease) SetTimeToLive(ms uint32)      { l.timeToLive = ms }

func (l *Lease) Deserialize(frh *FrameHeader) error {
	b := frh.payload
	if len(b) < 8 {
		return ErrMissingBytes
	}
	l.timeToLive = wire.BytesToUint32(b[0:4])
	l.numberOfRequests = wire.BytesToUint32(b[4:8])
	return decodePayload(&l.payload, b[8:], frh.Flags().Has(FlagMetadata))
}

func (l *Lease) Serialize(frh *FrameHeader) {
	buf := make([]byte, 0, 8)
	buf = wire.AppendUint32(buf, l.timeToLive)
	buf = wire.AppendUint32(buf, l.numberOfRequests)

	flags := FrameFlags(0)
	if l.payload.HasMetadata() {
		flags = flags.Add(FlagMetadata)
	}
	buf = appendPayload(buf, l.payload)

	frh.SetFlags(flags)
	frh.setPayload(buf)
}

// leaseWindow tracks one direction's admission-control quota: the
// number of requests still permitted before expiresAt.
//
// No teacher analogue (HTTP/2 has no admission-control frame); built
// directly from spec.md §4.5. Unlike most connection state, grant is
// called from the read loop (on an inbound LEASE frame) while allow is
// called from whatever arbitrary goroutine a requester call
// (RequestResponse/RequestStream/RequestChannel/FireAndForget) happens
// to run on, so this needs its own lock — the same deviation from "no
// locks" that conn.go's stream table makes, for the identical reason.
type leaseWindow struct {
	clock clockwork.Clock

	mu        sync.Mutex
	remaining int
	expiresAt time.Time
	armed     bool
}

func newLeaseWindow(clock clockwork.Clock) *leaseWindow {
	return &leaseWindow{clock: clock}
}

// grant installs a new lease, superseding whatever quota remained
// (spec.md §4.5: "the latest supersedes").
func (w *leaseWindow) grant(numberOfRequests uint32, timeToLiveMS uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.remaining = int(numberOfRequests)
	w.expiresAt = w.clock.Now().Add(time.Duration(timeToLiveMS) * time.Millisecond)
	w.armed = true
}

// allow reports whether one more request may be admitted, consuming
// one unit of quota if so.
func (w *leaseWindow) allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.armed {
		return false
	}
	if w.clock.Now().After(w.expiresAt) {
		w.armed = false
		return false
	}
	if w.remaining <= 0 {
		return false
	}
	w.remaining--
	return true
}
