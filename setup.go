package rsocket

import (
	"sync"

	"github.com/domsolutions/rsocket/internal/wire"
)

const (
	versionMajor uint16 = 1
	versionMinor uint16 = 0
)

var setupPool = sync.Pool{
	New: func() interface{} { return &Setup{} },
}

// Setup is the SETUP frame: the initiator's opening handshake.
//
// Sent exactly once per connection by the initiator, preceding all
// other frames (spec.md §3 invariants).
type Setup struct {
	versionMajor uint16
	versionMinor uint16

	keepaliveInterval uint32 // milliseconds
	maxLifetime       uint32 // milliseconds

	resumeEnabled bool
	resumeToken   []byte

	leaseEnabled bool

	metadataMimeType string
	dataMimeType     string

	payload Payload
}

// AcquireSetup returns a pooled, reset Setup frame.
func AcquireSetup() *Setup {
	s := setupPool.Get().(*Setup)
	s.Reset()
	return s
}

// ReleaseSetup returns s to the pool.
func ReleaseSetup(s *Setup) { setupPool.Put(s) }

func (s *Setup) Type() FrameType { return FrameSetup }

func (s *Setup) Reset() {
	s.versionMajor = versionMajor
	s.versionMinor = versionMinor
	s.keepaliveInterval = 0
	s.maxLifetime = 0
	s.resumeEnabled = false
	s.resumeToken = s.resumeToken[:0]
	s.leaseEnabled = false
	s.metadataMimeType = ""
	s.dataMimeType = ""
	s.payload.Reset()
}

func (s *Setup) KeepaliveInterval() uint32      { return s.keepaliveInterval }
func (s *Setup) SetKeepaliveInterval(ms uint32) { s.keepaliveInterval = ms }
func (s *Setup) MaxLifetime() uint32            { return s.maxLifetime }
func (s *Setup) SetMaxLifetime(ms uint32)       { s.maxLifetime = ms }
func (s *Setup) ResumeEnabled() bool            { return s.resumeEnabled }
func (s *Setup) ResumeToken() []byte            { return s.resumeToken }

func (s *Setup) SetResumeToken(token []byte) {
	s.resumeEnabled = len(token) > 0
	s.resumeToken = append(s.resumeToken[:0], token...)
}

func (s *Setup) LeaseEnabled() bool         { return s.leaseEnabled }
func (s *Setup) SetLeaseEnabled(v bool)     { s.leaseEnabled = v }
func (s *Setup) MetadataMimeType() string   { return s.metadataMimeType }
func (s *Setup) DataMimeType() string       { return s.dataMimeType }
func (s *Setup) Payload() Payload           { return s.payload }

func (s *Setup) SetMimeTypes(metadataMime, dataMime string) {
	s.metadataMimeType = metadataMime
	s.dataMimeType = dataMime
}

func (s *Setup) SetPayload(p Payload) { s.payload = p }

func (s *Setup) Deserialize(frh *FrameHeader) error {
	b := frh.payload
	const fixed = 2 + 2 + 4 + 4
	if len(b) < fixed {
		return ErrMissingBytes
	}

	s.versionMajor = wire.BytesToUint16(b[0:2])
	s.versionMinor = wire.BytesToUint16(b[2:4])
	s.keepaliveInterval = wire.BytesToUint32(b[4:8])
	s.maxLifetime = wire.BytesToUint32(b[8:12])
	b = b[fixed:]

	s.resumeEnabled = frh.Flags().Has(FlagResumeEnable)
	if s.resumeEnabled {
		if len(b) < 2 {
			return ErrMissingBytes
		}
		n := int(wire.BytesToUint16(b[0:2]))
		b = b[2:]
		if len(b) < n {
			return ErrMissingBytes
		}
		s.resumeToken = append(s.resumeToken[:0], b[:n]...)
		b = b[n:]
	}

	s.leaseEnabled = frh.Flags().Has(FlagLease)

	metadataMime, b2, err := readMime(b)
	if err != nil {
		return err
	}
	s.metadataMimeType = metadataMime
	b = b2

	dataMime, b2, err := readMime(b)
	if err != nil {
		return err
	}
	s.dataMimeType = dataMime
	b = b2

	return decodePayload(&s.payload, b, frh.Flags().Has(FlagMetadata))
}

func readMime(b []byte) (string, []byte, error) {
	if len(b) < 1 {
		return "", nil, ErrMissingBytes
	}
	n := int(b[0])
	b = b[1:]
	if len(b) < n {
		return "", nil, ErrMissingBytes
	}
	return string(b[:n]), b[n:], nil
}

func (s *Setup) Serialize(frh *FrameHeader) {
	flags := FrameFlags(0)

	buf := make([]byte, 0, 12+2+len(s.resumeToken)+2+len(s.metadataMimeType)+len(s.dataMimeType))
	buf = wire.AppendUint16(buf, s.versionMajor)
	buf = wire.AppendUint16(buf, s.versionMinor)
	buf = wire.AppendUint32(buf, s.keepaliveInterval)
	buf = wire.AppendUint32(buf, s.maxLifetime)

	if s.resumeEnabled {
		flags = flags.Add(FlagResumeEnable)
		buf = wire.AppendUint16(buf, uint16(len(s.resumeToken)))
		buf = append(buf, s.resumeToken...)
	}
	if s.leaseEnabled {
		flags = flags.Add(FlagLease)
	}

	buf = append(buf, byte(len(s.metadataMimeType)))
	buf = append(buf, s.metadataMimeType...)
	buf = append(buf, byte(len(s.dataMimeType)))
	buf = append(buf, s.dataMimeType...)

	if s.payload.HasMetadata() {
		flags = flags.Add(FlagMetadata)
	}
	buf = appendPayload(buf, s.payload)

	frh.SetFlags(flags)
	frh.setPayload(buf)
}
