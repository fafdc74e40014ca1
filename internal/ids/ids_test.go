package ids

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsMonotonic(t *testing.T) {
	got := make([]string, 100)
	for i := range got {
		got[i] = New()
	}
	assert.True(t, sort.StringsAreSorted(got))
	for _, id := range got {
		assert.True(t, Valid(id), id)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ts, ok := Time(NewAt(at))
	require.True(t, ok)
	assert.True(t, ts.Equal(at))
}

func TestValidRejectsGarbage(t *testing.T) {
	assert.False(t, Valid(""))
	assert.False(t, Valid("not-a-ulid"))
	_, ok := Time("zzz")
	assert.False(t, ok)
}
