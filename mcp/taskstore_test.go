package mcp

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStoreLifecycle(t *testing.T) {
	ts := newTaskStore()

	id := ts.start()
	entry, ok := ts.get(id)
	require.True(t, ok)
	assert.Equal(t, taskRunning, entry.status)

	result := &CallToolResult{Content: []*Content{NewTextContent("done")}}
	ts.put(id, result, nil, time.Minute)

	entry, ok = ts.get(id)
	require.True(t, ok)
	assert.Equal(t, taskCompleted, entry.status)
	assert.Same(t, result, entry.result)
}

func TestTaskStorePutWithError(t *testing.T) {
	ts := newTaskStore()
	id := ts.start()

	ts.put(id, nil, errors.New("boom"), time.Minute)

	entry, ok := ts.get(id)
	require.True(t, ok)
	assert.Equal(t, taskFailed, entry.status)
	assert.EqualError(t, entry.err, "boom")
}

func TestTaskStorePutUnknownIDStillRecordsIt(t *testing.T) {
	ts := newTaskStore()
	assert.NotPanics(t, func() { ts.put(999, nil, nil, time.Minute) })
	entry, ok := ts.get(999)
	require.True(t, ok)
	assert.Equal(t, taskCompleted, entry.status)
}

func TestTaskStorePutZeroRetentionUsesDefault(t *testing.T) {
	ts := newTaskStore()
	id := ts.start()
	ts.put(id, nil, nil, 0)

	entry, ok := ts.get(id)
	require.True(t, ok)
	assert.True(t, entry.deadline.After(time.Now()), "a zero retention should fall back to a usable default, not expire immediately")
}

func TestTaskStoreGetExpiredEntryIsGone(t *testing.T) {
	ts := newTaskStore()
	id := ts.start()
	ts.put(id, nil, nil, -time.Second)

	_, ok := ts.get(id)
	assert.False(t, ok)
}

func TestTaskStoreGetUnknownID(t *testing.T) {
	ts := newTaskStore()
	_, ok := ts.get(42)
	assert.False(t, ok)
}

func TestTaskStoreIDsAreUniquePerSession(t *testing.T) {
	ts := newTaskStore()
	a := ts.start()
	b := ts.start()
	assert.NotEqual(t, a, b)
}

func TestTaskStoreCancelRunningTask(t *testing.T) {
	ts := newTaskStore()
	id := ts.start()

	assert.True(t, ts.cancel(id))
	entry, ok := ts.get(id)
	require.True(t, ok)
	assert.Equal(t, taskCancelled, entry.status)
}

func TestTaskStoreCancelRejectsUnknownOrResolvedTask(t *testing.T) {
	ts := newTaskStore()
	assert.False(t, ts.cancel(999))

	id := ts.start()
	ts.put(id, nil, nil, time.Minute)
	assert.False(t, ts.cancel(id), "a completed task cannot be cancelled")
}

func TestTaskStoreListReturnsUnexpiredIDsSorted(t *testing.T) {
	ts := newTaskStore()
	a := ts.start()
	b := ts.start()
	expired := ts.start()
	ts.put(expired, nil, nil, -time.Second)

	assert.Equal(t, []int64{a, b}, ts.list())
}

func TestTaskStoreConcurrentStart(t *testing.T) {
	ts := newTaskStore()
	var wg sync.WaitGroup
	ids := make(chan int64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- ts.start()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "task id %d issued twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, 100)
}
