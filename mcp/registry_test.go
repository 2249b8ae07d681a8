package mcp

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStringSet(changed func()) *featureSet[string] {
	return newFeatureSet(func(s string) string { return s }, changed)
}

func TestFeatureSetAddRemove(t *testing.T) {
	var notifications int
	s := newStringSet(func() { notifications++ })

	s.add("b", "a", "c")
	assert.Equal(t, 3, s.len())
	assert.Equal(t, 1, notifications, "one add call notifies once")

	v, ok := s.get("a")
	require.True(t, ok)
	assert.Equal(t, "a", v)

	assert.True(t, s.remove("b"))
	assert.Equal(t, 2, s.len())
	assert.False(t, s.remove("not-present"), "removing an absent ID reports no change")
	assert.Equal(t, 2, notifications, "removing nothing does not notify again")
}

func TestFeatureSetAllOrdersByUniqueID(t *testing.T) {
	s := newStringSet(nil)
	s.add("z", "a", "m")

	var got []string
	for v := range s.all() {
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "m", "z"}, got)
}

func TestFeatureSetListPage(t *testing.T) {
	s := newStringSet(nil)
	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		s.add(id)
	}

	items, next := s.listPage("", 2)
	assert.Equal(t, []string{"a", "b"}, items)
	assert.Equal(t, "b", next)

	items, next = s.listPage(next, 2)
	assert.Equal(t, []string{"c", "d"}, items)
	assert.Equal(t, "d", next)

	items, next = s.listPage(next, 2)
	assert.Equal(t, []string{"e"}, items)
	assert.Equal(t, "", next, "exhausted list reports no further cursor")
}

func TestFeatureSetListPageResumeAfterRemoval(t *testing.T) {
	s := newStringSet(nil)
	for _, id := range []string{"a", "b", "c"} {
		s.add(id)
	}
	items, next := s.listPage("", 1)
	assert.Equal(t, []string{"a"}, items)

	s.remove("a")

	// Resuming from a cursor that no longer exists in the set falls back to
	// the binary-search insertion point rather than erroring.
	items, _ = s.listPage(next, 10)
	assert.Equal(t, []string{"b", "c"}, items)
}

func TestFeatureSetConcurrentAccess(t *testing.T) {
	s := newStringSet(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			s.add(id)
			s.get(id)
			s.len()
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, s.len(), 26)
}

func TestFeatureSetSortedKeysInvalidatedOnMutation(t *testing.T) {
	s := newStringSet(nil)
	s.add("b")
	var first []string
	for v := range s.all() {
		first = append(first, v)
	}
	s.add("a")
	var second []string
	for v := range s.all() {
		second = append(second, v)
	}
	assert.True(t, slices.IsSorted(second))
	assert.NotEqual(t, first, second)
}
