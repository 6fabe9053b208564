package rsocket

import (
	"github.com/domsolutions/rsocket/internal/wire"
	"github.com/valyala/bytebufferpool"
)

// Payload is an RSocket payload: an optional metadata section and an
// optional data section. Either may be empty or entirely absent;
// metadata-only and data-only payloads are both legal (spec.md §3).
//
// Payload's backing buffers are pooled via bytebufferpool, mirroring
// the teacher's Request/Response body buffers (request.go, response.go
// in the original http2 engine). Call Release when a Payload obtained
// from the wire is no longer needed; Payloads constructed by
// application code with NewPayload own plain slices and Release is a
// no-op for them.
type Payload struct {
	data     *bytebufferpool.ByteBuffer
	metadata *bytebufferpool.ByteBuffer

	rawData     []byte
	rawMetadata []byte
	hasMetadata bool

	pooled bool
}

// NewPayload builds a Payload from application-owned byte slices. data
// or metadata may be nil. Pass hasMetadata=true to distinguish
// "metadata present but empty" from "no metadata section at all".
func NewPayload(data, metadata []byte, hasMetadata bool) Payload {
	return Payload{
		rawData:     data,
		rawMetadata: metadata,
		hasMetadata: hasMetadata || metadata != nil,
	}
}

// Data returns the payload's data section, or nil if absent.
func (p *Payload) Data() []byte {
	if p.pooled {
		return p.data.B
	}
	return p.rawData
}

// Metadata returns the payload's metadata section. ok is false if no
// metadata section was present at all.
func (p *Payload) Metadata() (metadata []byte, ok bool) {
	if !p.hasMetadata {
		return nil, false
	}
	if p.pooled {
		return p.metadata.B, true
	}
	return p.rawMetadata, true
}

// HasMetadata reports whether a metadata section is present (possibly
// empty).
func (p *Payload) HasMetadata() bool { return p.hasMetadata }

// Reset clears p, releasing any pooled buffers.
func (p *Payload) Reset() {
	if p.pooled {
		if p.data != nil {
			bytebufferpool.Put(p.data)
		}
		if p.metadata != nil {
			bytebufferpool.Put(p.metadata)
		}
	}
	*p = Payload{}
}

// Release returns p's pooled buffers, if any, to the pool. p must not
// be used afterwards.
func (p *Payload) Release() { p.Reset() }

// CopyTo deep-copies p into dst, acquiring pooled buffers for dst.
func (p *Payload) CopyTo(dst *Payload) {
	dst.Reset()
	dst.hasMetadata = p.hasMetadata
	dst.pooled = true

	data := p.Data()
	dst.data = bytebufferpool.Get()
	dst.data.Write(data)

	if p.hasMetadata {
		metadata, _ := p.Metadata()
		dst.metadata = bytebufferpool.Get()
		dst.metadata.Write(metadata)
	}
}

// decodePayload parses b (metadata-length-prefixed-if-present, then
// data, per spec.md §6) into p using pooled buffers.
func decodePayload(p *Payload, b []byte, hasMetadata bool) error {
	p.Reset()
	p.pooled = true
	p.hasMetadata = hasMetadata

	if hasMetadata {
		if len(b) < 3 {
			return ErrMissingBytes
		}
		n := int(wire.BytesToUint24(b))
		b = b[3:]
		if len(b) < n {
			return ErrMissingBytes
		}
		p.metadata = bytebufferpool.Get()
		p.metadata.Write(b[:n])
		b = b[n:]
	}

	p.data = bytebufferpool.Get()
	p.data.Write(b)
	return nil
}

// appendPayload serializes p (metadata-length-prefixed-if-present, then
// data) onto dst.
func appendPayload(dst []byte, p Payload) []byte {
	if p.hasMetadata {
		metadata, _ := p.Metadata()
		dst = wire.AppendUint24(dst, uint32(len(metadata)))
		dst = append(dst, metadata...)
	}
	dst = append(dst, p.Data()...)
	return dst
}
