package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupWellKnownMime(t *testing.T) {
	s, ok := LookupWellKnownMime(MimeApplicationJSON)
	assert.True(t, ok)
	assert.Equal(t, "application/json", s)

	_, ok = LookupWellKnownMime(WellKnownMimeType(0x7F + 1))
	assert.False(t, ok)
}

func TestLookupMimeID(t *testing.T) {
	id, ok := LookupMimeID("message/x.rsocket.routing.v0")
	assert.True(t, ok)
	assert.Equal(t, MimeMessageRSocketRoutingV0, id)

	_, ok = LookupMimeID("application/not-a-registered-mime")
	assert.False(t, ok)
}

// Every registered id must round-trip through both lookup directions,
// and the registry must not carry a duplicate string or id (a
// duplicate map key would silently shadow an entry rather than fail to
// compile).
func TestRegistryRoundTripsAndHasNoDuplicates(t *testing.T) {
	seenStrings := make(map[string]WellKnownMimeType, len(wellKnownMimeStrings))
	for id, s := range wellKnownMimeStrings {
		if other, dup := seenStrings[s]; dup {
			t.Fatalf("mime string %q registered twice: ids %#x and %#x", s, other, id)
		}
		seenStrings[s] = id

		gotID, ok := LookupMimeID(s)
		assert.True(t, ok)
		assert.Equal(t, id, gotID)

		gotStr, ok := LookupWellKnownMime(id)
		assert.True(t, ok)
		assert.Equal(t, s, gotStr)
	}
}
