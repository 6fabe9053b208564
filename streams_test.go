package rsocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamsInsertGetOrdersById(t *testing.T) {
	strms := NewStreams()
	strms.Insert(NewStream(5, InteractionRequestResponse))
	strms.Insert(NewStream(1, InteractionRequestStream))
	strms.Insert(NewStream(3, InteractionFireAndForget))

	require.Equal(t, 3, strms.Len())

	var ids []uint32
	strms.Each(func(s *Stream) { ids = append(ids, s.ID()) })
	assert.Equal(t, []uint32{1, 3, 5}, ids)

	got := strms.Get(3)
	require.NotNil(t, got)
	assert.Equal(t, InteractionFireAndForget, got.Model())

	assert.Nil(t, strms.Get(7))
}

func TestStreamsDelRemembersClosedID(t *testing.T) {
	strms := NewStreams()
	strms.Insert(NewStream(2, InteractionRequestResponse))

	assert.False(t, strms.WasRecentlyClosed(2))

	removed := strms.Del(2)
	require.NotNil(t, removed)
	assert.Equal(t, uint32(2), removed.ID())

	assert.Nil(t, strms.Get(2))
	assert.True(t, strms.WasRecentlyClosed(2))
}

func TestStreamsDelUnknownIDIsNoop(t *testing.T) {
	strms := NewStreams()
	assert.Nil(t, strms.Del(42))
}

// closedIDsCap bounds memory for the recently-closed set: the oldest
// entry is evicted once the cap is exceeded (spec.md §9 design notes).
func TestStreamsClosedIDsBounded(t *testing.T) {
	strms := NewStreams()

	for i := uint32(0); i < closedIDsCap+10; i++ {
		strms.Insert(NewStream(i, InteractionRequestResponse))
		strms.Del(i)
	}

	assert.False(t, strms.WasRecentlyClosed(0), "oldest closed id must have been evicted")
	assert.True(t, strms.WasRecentlyClosed(closedIDsCap+9), "most recently closed id must still be remembered")
}

func TestStreamConsumeRemoteCredit(t *testing.T) {
	s := NewStream(1, InteractionRequestStream)
	assert.False(t, s.ConsumeRemoteCredit(), "no credit granted yet")

	s.AddRemoteCredits(2)
	assert.True(t, s.ConsumeRemoteCredit())
	assert.True(t, s.ConsumeRemoteCredit())
	assert.False(t, s.ConsumeRemoteCredit())
}

func TestIsClientInitiated(t *testing.T) {
	assert.True(t, IsClientInitiated(1))
	assert.False(t, IsClientInitiated(2))
}
