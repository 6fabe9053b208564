package rsocket

import "github.com/valyala/bytebufferpool"

// fragmentAccumulator holds the partial metadata/data collected for one
// stream id across a run of FOLLOWS-flagged frames, until a frame
// without FOLLOWS terminates the run (spec.md §4.3 "Fragment cache").
//
// Grounded on the teacher's Headers.rawHeaders accumulation across
// CONTINUATION frames (headers.go / continuation.go in the original
// http2 engine): both defer "is this thing complete yet" until a
// terminal flag arrives, buffering raw bytes in the meantime. RSocket
// generalizes that from "HEADERS only" to "any of the five frame types
// that can carry a fragmented payload".
type fragmentAccumulator struct {
	kind        FrameType
	metadata    *bytebufferpool.ByteBuffer
	data        *bytebufferpool.ByteBuffer
	hasMetadata bool
	fragments   int
}

func newFragmentAccumulator(kind FrameType, hasMetadata bool) *fragmentAccumulator {
	acc := &fragmentAccumulator{kind: kind, hasMetadata: hasMetadata}
	if hasMetadata {
		acc.metadata = bytebufferpool.Get()
	}
	acc.data = bytebufferpool.Get()
	return acc
}

func (acc *fragmentAccumulator) append(metadata, data []byte) {
	if acc.hasMetadata && metadata != nil {
		acc.metadata.Write(metadata)
	}
	acc.data.Write(data)
}

func (acc *fragmentAccumulator) release() {
	if acc.metadata != nil {
		bytebufferpool.Put(acc.metadata)
	}
	if acc.data != nil {
		bytebufferpool.Put(acc.data)
	}
}

// FragmentCache reassembles fragmented frames, keyed by stream id. Owned
// by Connection, not by Streams (spec.md §3 "Fragment accumulator").
// Connection passes the four request frame types and PAYLOAD through
// it; METADATA_PUSH frames are not reassembled.
type FragmentCache struct {
	byStream map[uint32]*fragmentAccumulator

	// maxFragments bounds how many frames may accumulate for a single
	// stream before the reassembly is abandoned, so a malicious or
	// buggy peer can't grow unbounded memory by never sending the
	// terminal fragment (spec.md §5 resource bounds).
	maxFragments int
}

// NewFragmentCache creates an empty cache. maxFragments<=0 means
// unbounded.
func NewFragmentCache(maxFragments int) *FragmentCache {
	return &FragmentCache{
		byStream:     make(map[uint32]*fragmentAccumulator),
		maxFragments: maxFragments,
	}
}

// Append starts (or continues) reassembly for streamID with one more
// fragment of type kind. follows reports whether this fragment itself
// carries the FOLLOWS flag (more fragments still to come).
//
// Continuation fragments always arrive as PAYLOAD frames on the wire,
// regardless of which frame type started the reassembly (REQUEST_*,
// METADATA_PUSH, ...) — PAYLOAD is the only frame shape that carries
// nothing but metadata/data. kind is therefore only compared against
// the accumulator's stored kind when kind itself is not FramePayload:
// a second request-initiating frame arriving for a stream id that
// already has a reassembly in flight is what spec.md §8's "fragment
// type mismatch" scenario actually tests.
//
// Returns the fully reassembled metadata/data once follows is false;
// otherwise ok is false and the caller must wait for more fragments.
func (c *FragmentCache) Append(streamID uint32, kind FrameType, hasMetadata bool, metadata, data []byte, follows bool) (outMetadata, outData []byte, outHasMetadata, ok bool, err error) {
	acc := c.byStream[streamID]
	if acc == nil {
		acc = newFragmentAccumulator(kind, hasMetadata)
		c.byStream[streamID] = acc
	} else if kind != FramePayload && acc.kind != kind {
		c.abort(streamID)
		return nil, nil, false, false, ErrFragmentDifferentType
	}

	acc.fragments++
	if c.maxFragments > 0 && acc.fragments > c.maxFragments {
		c.abort(streamID)
		return nil, nil, false, false, ErrFrameTooLarge
	}

	acc.append(metadata, data)

	if follows {
		return nil, nil, false, false, nil
	}

	delete(c.byStream, streamID)
	defer acc.release()

	outHasMetadata = acc.hasMetadata
	outData = append([]byte(nil), acc.data.B...)
	if acc.hasMetadata {
		outMetadata = append([]byte(nil), acc.metadata.B...)
	}
	return outMetadata, outData, outHasMetadata, true, nil
}

// fragmentPiece is one wire-ready slice of an outbound payload split by
// splitFragments: either the whole payload (unfragmented) or one of a
// run of head+continuation pieces.
type fragmentPiece struct {
	metadata    []byte
	data        []byte
	hasMetadata bool
	follows     bool
}

// splitFragments divides metadata+data into pieces of at most
// fragmentSize content bytes each (spec.md §4.2 "Outbound"). Metadata
// precedes data in the logical stream a piece boundary is cut from, so
// a split may fall mid-section; a piece only carries a metadata slice
// for whatever part of the metadata section it actually contains. The
// final piece has follows=false; every other piece has follows=true.
//
// fragmentSize<=0 disables fragmentation: the whole payload is
// returned as a single, unfragmented piece regardless of size.
func splitFragments(metadata, data []byte, hasMetadata bool, fragmentSize uint32) []fragmentPiece {
	total := len(metadata) + len(data)
	if fragmentSize == 0 || uint32(total) <= fragmentSize {
		return []fragmentPiece{{metadata: metadata, data: data, hasMetadata: hasMetadata, follows: false}}
	}

	metaLen := len(metadata)
	size := int(fragmentSize)

	pieces := make([]fragmentPiece, 0, (total+size-1)/size)
	for offset := 0; offset < total; offset += size {
		end := offset + size
		if end > total {
			end = total
		}

		var piece fragmentPiece
		if offset < metaLen {
			metaEnd := end
			if metaEnd > metaLen {
				metaEnd = metaLen
			}
			piece.metadata = metadata[offset:metaEnd]
			piece.hasMetadata = hasMetadata
		}
		if end > metaLen {
			dataStart := offset - metaLen
			if dataStart < 0 {
				dataStart = 0
			}
			piece.data = data[dataStart : end-metaLen]
		}
		piece.follows = end < total
		pieces = append(pieces, piece)
	}

	// A metadata section present but zero-length never falls inside any
	// offset<metaLen window above; preserve it on the first piece so
	// "metadata present but empty" survives fragmentation (spec.md §3).
	if hasMetadata && metaLen == 0 && len(pieces) > 0 {
		pieces[0].hasMetadata = true
	}

	return pieces
}

// InProgress reports whether streamID has a reassembly in flight.
func (c *FragmentCache) InProgress(streamID uint32) bool {
	_, ok := c.byStream[streamID]
	return ok
}

// Abandon discards any in-flight reassembly for streamID, e.g. when the
// stream is cancelled mid-fragment.
func (c *FragmentCache) Abandon(streamID uint32) {
	c.abort(streamID)
}

func (c *FragmentCache) abort(streamID uint32) {
	if acc, ok := c.byStream[streamID]; ok {
		acc.release()
		delete(c.byStream, streamID)
	}
}
