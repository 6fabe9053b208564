package rsocket

import "sync"

var metadataPushPool = sync.Pool{
	New: func() interface{} { return &MetadataPush{} },
}

// MetadataPush is the METADATA_PUSH frame: a one-shot, connection-level
// (stream id 0) metadata-only message with no response (spec.md §4.4.5).
type MetadataPush struct {
	metadata []byte
}

func AcquireMetadataPush() *MetadataPush {
	m := metadataPushPool.Get().(*MetadataPush)
	m.Reset()
	return m
}

func ReleaseMetadataPush(m *MetadataPush) { metadataPushPool.Put(m) }

func (m *MetadataPush) Type() FrameType   { return FrameMetadataPush }
func (m *MetadataPush) Reset()            { m.metadata = m.metadata[:0] }
func (m *MetadataPush) Metadata() []byte  { return m.metadata }
func (m *MetadataPush) SetMetadata(b []byte) { m.metadata = append(m.metadata[:0], b...) }

func (m *MetadataPush) Deserialize(frh *FrameHeader) error {
	m.metadata = append(m.metadata[:0], frh.payload...)
	return nil
}

func (m *MetadataPush) Serialize(frh *FrameHeader) {
	frh.SetFlags(FlagMetadata)
	frh.setPayload(m.metadata)
}
