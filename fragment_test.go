package rsocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentCacheReassemblesAcrossContinuations(t *testing.T) {
	c := NewFragmentCache(0)

	_, _, _, ok, err := c.Append(1, FrameRequestResponse, false, nil, []byte("hel"), true)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, c.InProgress(1))

	_, _, _, ok, err = c.Append(1, FramePayload, false, nil, []byte("lo "), true)
	require.NoError(t, err)
	assert.False(t, ok)

	meta, data, hasMeta, ok, err := c.Append(1, FramePayload, false, nil, []byte("world"), false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, hasMeta)
	assert.Nil(t, meta)
	assert.Equal(t, []byte("hello world"), data)
	assert.False(t, c.InProgress(1))
}

func TestFragmentCacheReassemblesMetadataAndData(t *testing.T) {
	c := NewFragmentCache(0)

	_, _, _, _, err := c.Append(2, FrameRequestStream, true, []byte("met-"), []byte("dat-"), true)
	require.NoError(t, err)

	meta, data, hasMeta, ok, err := c.Append(2, FramePayload, true, []byte("a"), []byte("a"), false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, hasMeta)
	assert.Equal(t, []byte("met-a"), meta)
	assert.Equal(t, []byte("dat-a"), data)
}

// A second request-initiating frame for a stream id whose reassembly is
// already in flight is the fragment-type-mismatch scenario spec.md §8
// names; continuation fragments arriving as PAYLOAD never trip this
// check since they're compared only when kind != FramePayload.
func TestFragmentCacheTypeMismatchAborts(t *testing.T) {
	c := NewFragmentCache(0)

	_, _, _, _, err := c.Append(3, FrameRequestResponse, false, nil, []byte("a"), true)
	require.NoError(t, err)

	_, _, _, _, err = c.Append(3, FrameRequestStream, false, nil, []byte("b"), true)
	assert.ErrorIs(t, err, ErrFragmentDifferentType)
	assert.False(t, c.InProgress(3), "a mismatched fragment must abort the in-flight reassembly")
}

func TestFragmentCacheMaxFragmentsBound(t *testing.T) {
	c := NewFragmentCache(2)

	_, _, _, _, err := c.Append(4, FrameRequestResponse, false, nil, []byte("a"), true)
	require.NoError(t, err)
	_, _, _, _, err = c.Append(4, FramePayload, false, nil, []byte("b"), true)
	require.NoError(t, err)

	_, _, _, _, err = c.Append(4, FramePayload, false, nil, []byte("c"), true)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.False(t, c.InProgress(4))
}

// Spec scenario 1 (spec.md §8): splitting data="123abc89" with
// metadata="456def" at fragment_size=3 must yield exactly 5 fragments,
// and feeding those fragments back through FragmentCache.Append must
// reassemble to the original metadata/data — a round trip through the
// real splitter and cache, not hand-fed Append calls.
func TestSplitFragmentsRoundTripsThroughFragmentCache(t *testing.T) {
	metadata := []byte("456def")
	data := []byte("123abc89")

	pieces := splitFragments(metadata, data, true, 3)
	require.Len(t, pieces, 5)

	for i, p := range pieces {
		want := i < len(pieces)-1
		assert.Equal(t, want, p.follows, "piece %d follows", i)
	}

	c := NewFragmentCache(0)

	var (
		outMeta, outData []byte
		outHasMeta, ok   bool
		err              error
	)
	for i, p := range pieces {
		kind := FramePayload
		if i == 0 {
			kind = FrameRequestResponse
		}
		outMeta, outData, outHasMeta, ok, err = c.Append(10, kind, true, p.metadata, p.data, p.follows)
		require.NoError(t, err)
	}

	require.True(t, ok, "last fragment must complete reassembly")
	assert.True(t, outHasMeta)
	assert.Equal(t, metadata, outMeta)
	assert.Equal(t, data, outData)
	assert.False(t, c.InProgress(10))
}

func TestFragmentCacheAbandon(t *testing.T) {
	c := NewFragmentCache(0)

	_, _, _, _, err := c.Append(5, FrameRequestResponse, false, nil, []byte("a"), true)
	require.NoError(t, err)
	require.True(t, c.InProgress(5))

	c.Abandon(5)
	assert.False(t, c.InProgress(5))
}
