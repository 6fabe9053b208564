package rsocket

import "sort"

// closedIDsCap bounds how many recently-closed stream ids are
// remembered so late frames for them can be silently dropped rather
// than mistaken for "never existed" (spec.md §9 design notes: "a
// cancelled stream ID must be remembered long enough to drop late
// frames").
const closedIDsCap = 256

// Streams is a connection's stream table: a sorted slice keyed by
// stream id, adapted verbatim from the teacher's Streams (streams.go)
// binary-search insert/get/delete — RSocket's "at most one stream
// entry per live id, ids assigned in increasing order" invariant
// (spec.md §3) is identical to the teacher's.
type Streams struct {
	list []*Stream

	// closedIDs remembers ids removed from list, in insertion order, so
	// WasRecentlyClosed can distinguish "late frame for a stream we just closed"
	// from "frame for an id that was never opened".
	closedIDs    []uint32
	closedLookup map[uint32]struct{}
}

// NewStreams creates an empty stream table.
func NewStreams() *Streams {
	return &Streams{closedLookup: make(map[uint32]struct{})}
}

// Insert adds s to the table, keeping list sorted by id.
func (strms *Streams) Insert(s *Stream) {
	i := sort.Search(len(strms.list), func(i int) bool {
		return strms.list[i].id >= s.id
	})

	if i == len(strms.list) {
		strms.list = append(strms.list, s)
	} else {
		strms.list = append(strms.list[:i+1], strms.list[i:]...)
		strms.list[i] = s
	}
}

// Del removes and returns the stream entry with id, recording id as
// recently closed. Returns nil if no entry exists.
func (strms *Streams) Del(id uint32) *Stream {
	i := sort.Search(len(strms.list), func(i int) bool {
		return strms.list[i].id >= id
	})

	if i >= len(strms.list) || strms.list[i].id != id {
		return nil
	}

	strm := strms.list[i]
	strms.list = append(strms.list[:i], strms.list[i+1:]...)

	strms.markClosed(id)

	return strm
}

func (strms *Streams) markClosed(id uint32) {
	if strms.closedLookup == nil {
		strms.closedLookup = make(map[uint32]struct{})
	}
	strms.closedIDs = append(strms.closedIDs, id)
	strms.closedLookup[id] = struct{}{}

	if len(strms.closedIDs) > closedIDsCap {
		oldest := strms.closedIDs[0]
		strms.closedIDs = strms.closedIDs[1:]
		delete(strms.closedLookup, oldest)
	}
}

// Get returns the stream entry with id, or nil.
func (strms *Streams) Get(id uint32) *Stream {
	i := sort.Search(len(strms.list), func(i int) bool {
		return strms.list[i].id >= id
	})
	if i < len(strms.list) && strms.list[i].id == id {
		return strms.list[i]
	}
	return nil
}

// WasRecentlyClosed reports whether id was closed recently enough to
// still be remembered (spec.md §3 invariant: late frames on a
// terminated stream are dropped, not mistaken for unknown streams).
func (strms *Streams) WasRecentlyClosed(id uint32) bool {
	_, ok := strms.closedLookup[id]
	return ok
}

// Len returns the number of live stream entries.
func (strms *Streams) Len() int { return len(strms.list) }

// Each calls fn for every live stream entry, in ascending id order.
func (strms *Streams) Each(fn func(*Stream)) {
	for _, s := range strms.list {
		fn(s)
	}
}
