package rsocket

import (
	"sync"

	"github.com/domsolutions/rsocket/internal/wire"
	"golang.org/x/crypto/blake2b"
)

var resumePool = sync.Pool{
	New: func() interface{} { return &Resume{} },
}

// Resume is the RESUME frame: a request to re-establish a connection
// using a previously negotiated token (spec.md §3, §5 "RESUME" data
// model supplement in SPEC_FULL.md).
type Resume struct {
	versionMajor              uint16
	versionMinor              uint16
	token                     []byte
	lastReceivedServerPos     uint64
	firstAvailableClientPos   uint64
}

func AcquireResume() *Resume {
	r := resumePool.Get().(*Resume)
	r.Reset()
	return r
}

func ReleaseResume(r *Resume) { resumePool.Put(r) }

func (r *Resume) Type() FrameType { return FrameResume }
func (r *Resume) Reset() {
	r.versionMajor = versionMajor
	r.versionMinor = versionMinor
	r.token = r.token[:0]
	r.lastReceivedServerPos = 0
	r.firstAvailableClientPos = 0
}

func (r *Resume) Token() []byte                   { return r.token }
func (r *Resume) SetToken(b []byte)               { r.token = append(r.token[:0], b...) }
func (r *Resume) LastReceivedServerPosition() uint64 { return r.lastReceivedServerPos }
func (r *Resume) SetLastReceivedServerPosition(p uint64) { r.lastReceivedServerPos = p }
func (r *Resume) FirstAvailableClientPosition() uint64   { return r.firstAvailableClientPos }
func (r *Resume) SetFirstAvailableClientPosition(p uint64) { r.firstAvailableClientPos = p }

func (r *Resume) Deserialize(frh *FrameHeader) error {
	b := frh.payload
	if len(b) < 2+2+2 {
		return ErrMissingBytes
	}
	r.versionMajor = wire.BytesToUint16(b[0:2])
	r.versionMinor = wire.BytesToUint16(b[2:4])
	n := int(wire.BytesToUint16(b[4:6]))
	b = b[6:]
	if len(b) < n+16 {
		return ErrMissingBytes
	}
	r.token = append(r.token[:0], b[:n]...)
	b = b[n:]
	r.lastReceivedServerPos = uint64(wire.BytesToUint32(b[0:4]))<<32 | uint64(wire.BytesToUint32(b[4:8]))
	r.firstAvailableClientPos = uint64(wire.BytesToUint32(b[8:12]))<<32 | uint64(wire.BytesToUint32(b[12:16]))
	return nil
}

func (r *Resume) Serialize(frh *FrameHeader) {
	buf := make([]byte, 0, 6+len(r.token)+16)
	buf = wire.AppendUint16(buf, r.versionMajor)
	buf = wire.AppendUint16(buf, r.versionMinor)
	buf = wire.AppendUint16(buf, uint16(len(r.token)))
	buf = append(buf, r.token...)
	buf = wire.AppendUint32(buf, uint32(r.lastReceivedServerPos>>32))
	buf = wire.AppendUint32(buf, uint32(r.lastReceivedServerPos))
	buf = wire.AppendUint32(buf, uint32(r.firstAvailableClientPos>>32))
	buf = wire.AppendUint32(buf, uint32(r.firstAvailableClientPos))
	frh.setPayload(buf)
}

var resumeOKPool = sync.Pool{
	New: func() interface{} { return &ResumeOK{} },
}

// ResumeOK is the RESUME_OK frame: the accepting side's acknowledgement
// of a RESUME request.
type ResumeOK struct {
	clientPosition uint64
}

func AcquireResumeOK() *ResumeOK {
	r := resumeOKPool.Get().(*ResumeOK)
	r.Reset()
	return r
}

func ReleaseResumeOK(r *ResumeOK) { resumeOKPool.Put(r) }

func (r *ResumeOK) Type() FrameType             { return FrameResumeOK }
func (r *ResumeOK) Reset()                      { r.clientPosition = 0 }
func (r *ResumeOK) ClientPosition() uint64      { return r.clientPosition }
func (r *ResumeOK) SetClientPosition(p uint64)  { r.clientPosition = p }

func (r *ResumeOK) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) < 8 {
		return ErrMissingBytes
	}
	r.clientPosition = uint64(wire.BytesToUint32(frh.payload[0:4]))<<32 | uint64(wire.BytesToUint32(frh.payload[4:8]))
	return nil
}

func (r *ResumeOK) Serialize(frh *FrameHeader) {
	buf := wire.AppendUint32(make([]byte, 0, 8), uint32(r.clientPosition>>32))
	buf = wire.AppendUint32(buf, uint32(r.clientPosition))
	frh.setPayload(buf)
}

// ResumeFingerprint is a compact digest of a SETUP's negotiated
// parameters (its mime types and resume token), small enough to keep
// per connection instead of the full SETUP bytes.
//
// Grounded on spec.md's Non-goal "cross-connection session resumption
// beyond the protocol's resume token exchange": there is no
// frame/position replay buffer. Neither Connection nor Server computes
// or compares a fingerprint for an incoming RESUME, and no RESUME is
// ever answered with RESUME_OK.
type ResumeFingerprint [32]byte

// Fingerprint computes a ResumeFingerprint for a Setup frame's
// negotiated parameters using blake2b-256 (golang.org/x/crypto), kept
// from the teacher's go.mod as an engine-side dependency rather than
// only an example/TLS-certificate dependency (see DESIGN.md).
func Fingerprint(s *Setup) ResumeFingerprint {
	h, _ := blake2b.New256(nil)
	h.Write(wire.S2B(s.metadataMimeType))
	h.Write(wire.S2B(s.dataMimeType))
	h.Write(s.resumeToken)
	var out ResumeFingerprint
	copy(out[:], h.Sum(nil))
	return out
}
