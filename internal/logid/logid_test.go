package logid

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PrefixAndOrder(t *testing.T) {
	now := time.Date(2039, 4, 18, 21, 14, 0, 0, time.UTC)

	prev := ""
	for i := 0; i < 100; i++ {
		id := New(now)
		require.True(t, strings.HasPrefix(id, Prefix))
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestTime_RoundTrip(t *testing.T) {
	now := time.Date(2039, 4, 20, 18, 2, 0, 0, time.UTC)

	got, ok := Time(New(now))
	require.True(t, ok)
	assert.True(t, now.Equal(got))

	_, ok = Time("log-1700000000000")
	assert.False(t, ok)
}
