package rsocket

import "sync"

var cancelPool = sync.Pool{
	New: func() interface{} { return &Cancel{} },
}

// Cancel is the CANCEL frame: asks the responder to stop producing for
// a stream (spec.md §3).
//
// Grounded on the teacher's RstStream frame (rststream.go), minus the
// error code: RSocket's CANCEL carries no body at all, the peer
// already knows why (the requester lost interest).
type Cancel struct{}

func AcquireCancel() *Cancel {
	c := cancelPool.Get().(*Cancel)
	c.Reset()
	return c
}

func ReleaseCancel(c *Cancel) { cancelPool.Put(c) }

func (c *Cancel) Type() FrameType                     { return FrameCancel }
func (c *Cancel) Reset()                              {}
func (c *Cancel) Deserialize(frh *FrameHeader) error   { return nil }
func (c *Cancel) Serialize(frh *FrameHeader)           { frh.setPayload(nil) }
