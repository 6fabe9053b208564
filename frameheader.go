package rsocket

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/domsolutions/rsocket/internal/wire"
)

const (
	// headerSize is the size in bytes of the common frame header:
	// 4 bytes stream id (high bit reserved) + 2 bytes (type<<10)|flags.
	headerSize = 6

	// DefaultMaxFrameSize bounds a single frame's payload, per spec.md
	// §4.1 ("Frame size must not exceed a configured maximum (default
	// 16 MiB)").
	DefaultMaxFrameSize = 16 << 20

	// lengthPrefixSize is the 3 byte big-endian length prefix used when
	// framing over a stream transport (spec.md §6 wire format). Datagram
	// transports (QUIC) omit it; see ReadFrameFromDatagram.
	lengthPrefixSize = 3
)

var frameHeaderPool = sync.Pool{
	New: func() interface{} {
		return &FrameHeader{}
	},
}

// FrameHeader is the pooled representation of one wire frame: the
// common header fields plus the decoded/about-to-be-encoded Frame body.
//
// Use AcquireFrameHeader/ReleaseFrameHeader instead of allocating one
// directly; a FrameHeader instance must not be shared across goroutines.
type FrameHeader struct {
	streamID uint32
	kind     FrameType
	flags    FrameFlags

	maxLen uint32

	rawHeader [headerSize]byte
	payload   []byte

	fr Frame
}

// AcquireFrameHeader returns a FrameHeader from the pool, reset and
// ready to decode or be populated via SetBody.
func AcquireFrameHeader() *FrameHeader {
	frh := frameHeaderPool.Get().(*FrameHeader)
	frh.Reset()
	return frh
}

// ReleaseFrameHeader releases frh's body back to its type's pool and
// returns frh itself to the FrameHeader pool.
func ReleaseFrameHeader(frh *FrameHeader) {
	if frh.fr != nil {
		ReleaseFrame(frh.fr)
	}
	frameHeaderPool.Put(frh)
}

// Reset clears frh for reuse.
func (frh *FrameHeader) Reset() {
	frh.streamID = 0
	frh.kind = 0
	frh.flags = 0
	frh.maxLen = DefaultMaxFrameSize
	frh.fr = nil
	frh.payload = frh.payload[:0]
}

// Type returns the frame's type.
func (frh *FrameHeader) Type() FrameType { return frh.kind }

// Flags returns the frame's flags.
func (frh *FrameHeader) Flags() FrameFlags { return frh.flags }

// SetFlags replaces frh's flags.
func (frh *FrameHeader) SetFlags(flags FrameFlags) { frh.flags = flags }

// StreamID returns the frame's stream id (0 for connection-level frames).
func (frh *FrameHeader) StreamID() uint32 { return frh.streamID }

// SetStreamID sets the frame's stream id.
func (frh *FrameHeader) SetStreamID(id uint32) { frh.streamID = id }

// MaxLen returns the negotiated maximum frame payload size.
func (frh *FrameHeader) MaxLen() uint32 { return frh.maxLen }

// SetMaxLen overrides the negotiated maximum frame payload size.
func (frh *FrameHeader) SetMaxLen(n uint32) { frh.maxLen = n }

// Body returns the decoded/to-be-encoded frame body.
func (frh *FrameHeader) Body() Frame { return frh.fr }

// SetBody attaches fr as frh's body, adopting fr's type.
func (frh *FrameHeader) SetBody(fr Frame) {
	if fr == nil {
		panic("rsocket: frame body cannot be nil")
	}
	frh.kind = fr.Type()
	frh.fr = fr
}

func (frh *FrameHeader) setPayload(b []byte) {
	frh.payload = append(frh.payload[:0], b...)
}

func (frh *FrameHeader) appendCheckingLen(dst, src []byte) ([]byte, error) {
	if frh.maxLen > 0 && uint32(len(dst)+len(src)) > frh.maxLen {
		return dst, ErrFrameTooLarge
	}
	return append(dst, src...), nil
}

func (frh *FrameHeader) parseValues(header []byte) {
	word := wire.BytesToUint16(header[4:6])
	frh.streamID = wire.BytesToUint32(header[0:4]) & (1<<31 - 1)
	frh.kind = FrameType(word >> 10)
	frh.flags = FrameFlags(word) & flagsMask
}

func (frh *FrameHeader) encodeHeader(dst []byte) {
	_ = dst[5]
	wire.Uint32ToBytes(dst[0:4], frh.streamID&(1<<31-1))
	word := uint16(frh.kind)<<10 | uint16(frh.flags&flagsMask)
	dst[4] = byte(word >> 8)
	dst[5] = byte(word)
}

// ReadFrameFrom reads one length-prefixed frame from a stream transport.
func ReadFrameFrom(br *bufio.Reader) (*FrameHeader, error) {
	return ReadFrameFromWithSize(br, DefaultMaxFrameSize)
}

// ReadFrameFromWithSize reads one length-prefixed frame from a stream
// transport, rejecting any frame whose declared length exceeds max.
func ReadFrameFromWithSize(br *bufio.Reader, max uint32) (*FrameHeader, error) {
	lenHeader, err := br.Peek(lengthPrefixSize)
	if err != nil {
		return nil, err
	}
	n := int(wire.BytesToUint24(lenHeader))
	br.Discard(lengthPrefixSize)

	if max != 0 && uint32(n) > max {
		return nil, ErrFrameTooLarge
	}

	frh := AcquireFrameHeader()
	frh.maxLen = max

	if err := frh.readBody(br, n); err != nil {
		ReleaseFrameHeader(frh)
		return nil, err
	}
	return frh, nil
}

// ReadFrameFromDatagram decodes exactly one frame from a single datagram
// payload (no length prefix; one datagram is one frame, per spec.md §4.1
// QUIC note).
func ReadFrameFromDatagram(b []byte) (*FrameHeader, error) {
	if len(b) < headerSize {
		return nil, ErrMissingBytes
	}
	frh := AcquireFrameHeader()
	frh.parseValues(b[:headerSize])
	if frh.kind >= FrameExt {
		frh.kind = FrameExt
	}
	frh.fr = AcquireFrame(frh.kind)
	frh.payload = append(frh.payload[:0], b[headerSize:]...)
	if err := frh.fr.Deserialize(frh); err != nil {
		ReleaseFrameHeader(frh)
		return nil, err
	}
	return frh, nil
}

func (frh *FrameHeader) readBody(br *bufio.Reader, n int) error {
	if n < headerSize {
		return ErrMissingBytes
	}

	header, err := br.Peek(headerSize)
	if err != nil {
		return err
	}
	br.Discard(headerSize)

	frh.parseValues(header)

	if frh.kind != FrameExt && uint8(frh.kind) > uint8(FrameResumeOK) {
		io.CopyN(io.Discard, br, int64(n-headerSize))
		return ErrUnknownFrameType
	}

	frh.fr = AcquireFrame(frh.kind)

	remaining := n - headerSize
	if remaining > 0 {
		frh.payload = wire.Resize(frh.payload, remaining)
		if _, err := io.ReadFull(br, frh.payload); err != nil {
			return err
		}
	} else {
		frh.payload = frh.payload[:0]
	}

	return frh.fr.Deserialize(frh)
}

// WriteTo serializes frh's body and writes the length-prefixed frame to w.
func (frh *FrameHeader) WriteTo(w *bufio.Writer) (int64, error) {
	frh.fr.Serialize(frh)

	total := headerSize + len(frh.payload)
	if total > 1<<24-1 {
		return 0, fmt.Errorf("rsocket: frame too large to encode: %d bytes", total)
	}

	var lenBuf [lengthPrefixSize]byte
	wire.Uint24ToBytes(lenBuf[:], uint32(total))

	n, err := w.Write(lenBuf[:])
	wb := int64(n)
	if err != nil {
		return wb, err
	}

	frh.encodeHeader(frh.rawHeader[:])
	n, err = w.Write(frh.rawHeader[:])
	wb += int64(n)
	if err != nil {
		return wb, err
	}

	n, err = w.Write(frh.payload)
	wb += int64(n)
	return wb, err
}

// EncodeDatagram serializes frh's body without a length prefix, suitable
// for a single QUIC datagram.
func (frh *FrameHeader) EncodeDatagram() []byte {
	frh.fr.Serialize(frh)

	out := make([]byte, headerSize+len(frh.payload))
	frh.encodeHeader(out[:headerSize])
	copy(out[headerSize:], frh.payload)
	return out
}
