package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskvox/internal/nlu"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestRecord_KeepsMostRecentInOrder(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 25} {
		c := New(DefaultCapacity, DefaultTabTTL)
		for i := 0; i < n; i++ {
			c.Record(nlu.Intent{Action: nlu.ActionOpen, Target: fmt.Sprint(i)}, "ko")
		}

		got := c.Commands()
		require.Len(t, got, min(n, DefaultCapacity), "n=%d", n)
		for i, rec := range got {
			assert.Equal(t, fmt.Sprint(n-len(got)+i), rec.Intent.Target)
		}
	}
}

func TestRecent(t *testing.T) {
	c := New(3, time.Minute)
	for _, s := range []string{"a", "b", "c", "d"} {
		c.Record(nlu.Intent{Target: s}, "en")
	}
	recent := c.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Intent.Target)
	assert.Equal(t, "d", recent[1].Intent.Target)
	assert.Len(t, c.Recent(10), 3)
}

func TestCommands_ReturnsCopy(t *testing.T) {
	c := New(2, time.Minute)
	c.Record(nlu.Intent{Target: "x"}, "en")
	got := c.Commands()
	got[0].Intent.Target = "mutated"
	assert.Equal(t, "x", c.Commands()[0].Intent.Target)
}

func TestTabCache_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 7, 28, 9, 0, 0, 0, time.UTC)}
	c := New(DefaultCapacity, DefaultTabTTL, WithClock(clock.Now))

	c.StoreAnalysis("https://Example.com/news/", "<p>summary</p>", nil)

	clock.Advance(29 * time.Minute)
	e, ok := c.CachedAnalysis("https://example.com/news#top")
	require.True(t, ok)
	assert.Equal(t, "<p>summary</p>", e.Analysis)

	clock.Advance(2 * time.Minute)
	_, ok = c.CachedAnalysis("https://example.com/news")
	assert.False(t, ok)
	assert.Equal(t, 0, c.CachedTabs(), "expired entry is removed on lookup")
}

func TestTabCache_ExpiredEntriesStayUntilLookedUp(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := New(DefaultCapacity, time.Minute, WithClock(clock.Now))

	c.StoreAnalysis("https://a.example", "a", nil)
	c.StoreAnalysis("https://b.example", "b", nil)
	clock.Advance(2 * time.Minute)

	_, ok := c.CachedAnalysis("https://a.example")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CachedTabs())
}

func TestReset(t *testing.T) {
	c := New(DefaultCapacity, DefaultTabTTL)
	c.Record(nlu.Intent{Action: nlu.ActionOpen}, "ko")
	c.StoreAnalysis("https://example.com", "x", nil)

	c.Reset()

	assert.Empty(t, c.Commands())
	_, ok := c.CachedAnalysis("https://example.com")
	assert.False(t, ok)
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"HTTPS://Example.COM/Path/", "https://example.com/Path"},
		{"https://example.com/a?b=1#frag", "https://example.com/a?b=1"},
		{"  https://example.com  ", "https://example.com"},
		{"about:blank", "about:blank"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeURL(tc.in), tc.in)
	}
}
