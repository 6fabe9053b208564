package rsocket

import (
	"sync"

	"github.com/domsolutions/rsocket/internal/wire"
)

var errorFramePool = sync.Pool{
	New: func() interface{} { return &ErrorFrame{} },
}

// ErrorFrame is the ERROR frame: a stream-level or connection-level
// (stream id 0) wire error (spec.md §3, §4.9).
type ErrorFrame struct {
	code    ErrorCode
	message string
}

func AcquireErrorFrame() *ErrorFrame {
	e := errorFramePool.Get().(*ErrorFrame)
	e.Reset()
	return e
}

func ReleaseErrorFrame(e *ErrorFrame) { errorFramePool.Put(e) }

func (e *ErrorFrame) Type() FrameType { return FrameError }
func (e *ErrorFrame) Reset() {
	e.code = 0
	e.message = ""
}

func (e *ErrorFrame) Code() ErrorCode      { return e.code }
func (e *ErrorFrame) SetCode(c ErrorCode)  { e.code = c }
func (e *ErrorFrame) Message() string      { return e.message }
func (e *ErrorFrame) SetMessage(m string)  { e.message = m }

// Err returns e as a Go error.
func (e *ErrorFrame) Err() error { return NewError(e.code, e.message) }

func (e *ErrorFrame) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) < 4 {
		return ErrMissingBytes
	}
	e.code = ErrorCode(wire.BytesToUint32(frh.payload[0:4]))
	e.message = string(frh.payload[4:])
	return nil
}

func (e *ErrorFrame) Serialize(frh *FrameHeader) {
	buf := wire.AppendUint32(make([]byte, 0, 4+len(e.message)), uint32(e.code))
	buf = append(buf, e.message...)
	frh.setPayload(buf)
}
