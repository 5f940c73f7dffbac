package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](3)
	var evicted []string
	c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

	require.True(t, c.Add("a", 1, 1))
	require.True(t, c.Add("b", 2, 1))
	require.True(t, c.Add("c", 3, 1))
	_, ok := c.Get("a")
	require.True(t, ok)

	require.True(t, c.Add("d", 4, 1))

	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, []string{"d", "a", "c"}, c.Keys())
	assert.Equal(t, int64(3), c.Cost())
	assert.Equal(t, 3, c.Len())
}

func TestLRU_PeekDoesNotTouch(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1, 1)
	c.Add("b", 2, 1)

	v, ok := c.Peek("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Add("c", 3, 1)
	assert.False(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))
}

func TestLRU_Add(t *testing.T) {
	testCases := []struct {
		name     string
		setup    func(c *LRU[string, int])
		key      string
		cost     int64
		wantOK   bool
		wantCost int64
	}{
		{
			name:     "fits",
			key:      "a",
			cost:     4,
			wantOK:   true,
			wantCost: 4,
		},
		{
			name:     "larger than the budget is not stored",
			key:      "a",
			cost:     11,
			wantOK:   false,
			wantCost: 0,
		},
		{
			name:     "replace adjusts cost",
			setup:    func(c *LRU[string, int]) { c.Add("a", 0, 6) },
			key:      "a",
			cost:     2,
			wantOK:   true,
			wantCost: 2,
		},
		{
			name:     "oversized replacement drops the old entry",
			setup:    func(c *LRU[string, int]) { c.Add("a", 0, 6) },
			key:      "a",
			cost:     20,
			wantOK:   false,
			wantCost: 0,
		},
		{
			name:     "oversized replacement of a pinned entry is kept",
			setup:    func(c *LRU[string, int]) { c.AddPinned("a", 0, 6) },
			key:      "a",
			cost:     20,
			wantOK:   true,
			wantCost: 20,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := New[string, int](10)
			if tc.setup != nil {
				tc.setup(c)
			}
			assert.Equal(t, tc.wantOK, c.Add(tc.key, 1, tc.cost))
			assert.Equal(t, tc.wantOK, c.Contains(tc.key))
			assert.Equal(t, tc.wantCost, c.Cost())
		})
	}
}

func TestLRU_PinnedEntriesSurviveEviction(t *testing.T) {
	c := New[string, int](2)
	c.AddPinned("pinned", 1, 2)
	c.Add("a", 2, 1)

	assert.False(t, c.Contains("a"), "unpinned entry makes room")
	assert.True(t, c.Contains("pinned"))
	assert.True(t, c.Pinned("pinned"))

	c.SetMaxCost(0)
	assert.True(t, c.Contains("pinned"))
	assert.Equal(t, int64(2), c.Cost())

	c.Unpin("pinned")
	assert.False(t, c.Contains("pinned"), "evicted once released over budget")
	assert.Equal(t, int64(0), c.Cost())
}

func TestLRU_PinCounts(t *testing.T) {
	c := New[string, int](1)
	c.Add("a", 1, 1)
	require.True(t, c.Pin("a"))
	_, ok := c.GetPinned("a")
	require.True(t, ok)
	assert.False(t, c.Pin("missing"))

	c.SetMaxCost(0)
	c.Unpin("a")
	assert.True(t, c.Contains("a"), "one pin still held")
	c.Unpin("a")
	assert.False(t, c.Contains("a"))
	c.Unpin("a")
}

func TestLRU_ClearKeepsPinned(t *testing.T) {
	c := New[int, string](100)
	c.Add(1, "one", 1)
	c.AddPinned(2, "two", 1)
	c.Add(3, "three", 1)

	c.Clear()

	assert.Equal(t, []int{2}, c.Keys())
	assert.Equal(t, int64(1), c.Cost())

	assert.True(t, c.Remove(2))
	assert.False(t, c.Remove(2))
	assert.Equal(t, 0, c.Len())
}
