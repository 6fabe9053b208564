package metadata

import (
	"errors"

	"github.com/domsolutions/rsocket/internal/wire"
)

// ErrTruncatedEntry is returned when a composite metadata buffer ends
// before a full entry (mime header + 3-byte length + content) can be
// read.
var ErrTruncatedEntry = errors.New("metadata: truncated composite metadata entry")

// highBit marks the mime header byte as a well-known registry id
// rather than an inline mime string length (spec.md §3 "Composite
// metadata entry").
const highBit = 0x80

// Entry is one (mime, content) pair inside a composite metadata
// section. Exactly one of WellKnown/Mime identifies the entry's mime
// type.
type Entry struct {
	WellKnown   WellKnownMimeType
	Mime        string
	IsWellKnown bool
	Content     []byte
}

// AppendEntry serializes e onto dst: 1 byte (high bit set + 7-bit
// well-known id, or 7-bit mime string length followed by the mime
// bytes), a 3-byte big-endian content length, then the content.
func AppendEntry(dst []byte, e Entry) []byte {
	if e.IsWellKnown {
		dst = append(dst, byte(e.WellKnown)|highBit)
	} else {
		dst = append(dst, byte(len(e.Mime))&0x7F)
		dst = append(dst, e.Mime...)
	}
	dst = wire.AppendUint24(dst, uint32(len(e.Content)))
	return append(dst, e.Content...)
}

// DecodeEntries parses every Entry packed sequentially in b (a full
// composite metadata section).
func DecodeEntries(b []byte) ([]Entry, error) {
	var entries []Entry
	for len(b) > 0 {
		e, rest, err := DecodeEntry(b)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		b = rest
	}
	return entries, nil
}

// DecodeEntry parses one Entry from the front of b, returning the
// unconsumed remainder.
func DecodeEntry(b []byte) (Entry, []byte, error) {
	if len(b) < 1 {
		return Entry{}, nil, ErrTruncatedEntry
	}

	header := b[0]
	b = b[1:]

	var e Entry
	if header&highBit != 0 {
		e.IsWellKnown = true
		e.WellKnown = WellKnownMimeType(header &^ highBit)
	} else {
		mimeLen := int(header & 0x7F)
		if len(b) < mimeLen {
			return Entry{}, nil, ErrTruncatedEntry
		}
		e.Mime = string(b[:mimeLen])
		b = b[mimeLen:]
	}

	if len(b) < 3 {
		return Entry{}, nil, ErrTruncatedEntry
	}
	contentLen := int(wire.BytesToUint24(b))
	b = b[3:]

	if len(b) < contentLen {
		return Entry{}, nil, ErrTruncatedEntry
	}
	e.Content = b[:contentLen]
	b = b[contentLen:]

	return e, b, nil
}

// Find returns the first entry in b matching the given well-known id.
func Find(b []byte, id WellKnownMimeType) (Entry, bool, error) {
	entries, err := DecodeEntries(b)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.IsWellKnown && e.WellKnown == id {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// FindMime returns the first entry in b whose mime string (well-known
// or inline) equals mime.
func FindMime(b []byte, mime string) (Entry, bool, error) {
	id, wellKnown := LookupMimeID(mime)
	entries, err := DecodeEntries(b)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if wellKnown && e.IsWellKnown && e.WellKnown == id {
			return e, true, nil
		}
		if !e.IsWellKnown && e.Mime == mime {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}
