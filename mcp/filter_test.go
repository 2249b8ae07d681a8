package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	requests []string
}

func (m *recordingMetrics) RequestHandled(method string, d time.Duration, err error) {
	m.requests = append(m.requests, method)
}
func (m *recordingMetrics) ToolInvoked(string, time.Duration, bool, error) {}
func (m *recordingMetrics) SessionOpened()                                {}
func (m *recordingMetrics) SessionClosed()                                {}

func passthroughHandler() jsonrpc.Handler {
	return jsonrpc.HandlerFunc(func(ctx context.Context, req *jsonrpc.Request) (any, error) {
		return "ok", nil
	})
}

func TestChainFiltersRunsOutermostFirst(t *testing.T) {
	var order []string
	mark := func(name string) RequestFilter {
		return func(next jsonrpc.Handler) jsonrpc.Handler {
			return jsonrpc.HandlerFunc(func(ctx context.Context, req *jsonrpc.Request) (any, error) {
				order = append(order, name)
				return next.Handle(ctx, req)
			})
		}
	}

	h := chainFilters(passthroughHandler(), mark("outer"), mark("inner"))
	_, err := h.Handle(context.Background(), &jsonrpc.Request{Method: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestChainFiltersWithNoFiltersIsIdentity(t *testing.T) {
	h := chainFilters(passthroughHandler())
	result, err := h.Handle(context.Background(), &jsonrpc.Request{Method: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestMetricsFilterRecordsEveryMethod(t *testing.T) {
	m := &recordingMetrics{}
	h := metricsFilter(m)(passthroughHandler())

	_, err := h.Handle(context.Background(), &jsonrpc.Request{Method: "tools/call"})
	require.NoError(t, err)
	_, err = h.Handle(context.Background(), &jsonrpc.Request{Method: "tools/list"})
	require.NoError(t, err)

	assert.Equal(t, []string{"tools/call", "tools/list"}, m.requests)
}

func TestDeferredDeliveryFilterIgnoresOtherMethods(t *testing.T) {
	s := newTestSession(t)
	called := false
	next := jsonrpc.HandlerFunc(func(ctx context.Context, req *jsonrpc.Request) (any, error) {
		called = true
		EnablePolling(ctx, time.Minute) // should have no effect outside tools/call
		return nil, nil
	})

	h := deferredDeliveryFilter(s)(next)
	_, err := h.Handle(context.Background(), &jsonrpc.Request{Method: methodListTools})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Empty(t, s.tasks.list())
}

func TestDeferredDeliveryFilterPassesThroughWithoutEnablePolling(t *testing.T) {
	s := newTestSession(t)
	want := &CallToolResult{Content: []*Content{NewTextContent("done")}}
	next := jsonrpc.HandlerFunc(func(ctx context.Context, req *jsonrpc.Request) (any, error) {
		return want, nil
	})

	h := deferredDeliveryFilter(s)(next)
	result, err := h.Handle(context.Background(), &jsonrpc.Request{Method: methodCallTool})
	require.NoError(t, err)
	assert.Same(t, want, result)
}

func TestDeferredDeliveryFilterStoresResultAndSignalsReconnect(t *testing.T) {
	s := newTestSession(t)
	reconnected := false
	s.SetStreamCloser(func() { reconnected = true })
	real := &CallToolResult{Content: []*Content{NewTextContent("slow result")}}
	next := jsonrpc.HandlerFunc(func(ctx context.Context, req *jsonrpc.Request) (any, error) {
		EnablePolling(ctx, time.Minute)
		return real, nil
	})

	h := deferredDeliveryFilter(s)(next)
	result, err := h.Handle(context.Background(), &jsonrpc.Request{Method: methodCallTool})
	require.NoError(t, err)

	deferred, ok := result.(*CallToolResult)
	require.True(t, ok)
	assert.NotSame(t, real, deferred, "the client gets an ack, not the real result, on the original request")
	taskID, ok := deferred.Meta.Data["taskId"].(int64)
	require.True(t, ok)
	assert.True(t, reconnected, "enablePolling must force the stream to close")

	entry, ok := s.tasks.get(taskID)
	require.True(t, ok)
	assert.Equal(t, taskCompleted, entry.status)
	assert.Same(t, real, entry.result)
}

func TestTasksFilterPassesThroughOtherMethods(t *testing.T) {
	s := newTestSession(t)
	called := false
	next := jsonrpc.HandlerFunc(func(ctx context.Context, req *jsonrpc.Request) (any, error) {
		called = true
		return nil, nil
	})

	h := tasksFilter(next, s)
	_, err := h.Handle(context.Background(), &jsonrpc.Request{Method: methodListTools})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestTasksFilterGetUnknownTaskID(t *testing.T) {
	s := newTestSession(t)
	h := tasksFilter(passthroughHandler(), s)

	raw, err := json.Marshal(&TasksGetParams{TaskID: 7})
	require.NoError(t, err)
	_, err = h.Handle(context.Background(), &jsonrpc.Request{Method: methodTasksGet, Params: raw})
	require.Error(t, err)
	var we *jsonrpc.WireError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, jsonrpc.CodeInvalidParams, we.Code)
}

func TestTasksFilterGetReturnsRunningStatus(t *testing.T) {
	s := newTestSession(t)
	id := s.tasks.start()
	h := tasksFilter(passthroughHandler(), s)

	raw, err := json.Marshal(&TasksGetParams{TaskID: id})
	require.NoError(t, err)
	result, err := h.Handle(context.Background(), &jsonrpc.Request{Method: methodTasksGet, Params: raw})
	require.NoError(t, err)
	tr, ok := result.(*TasksGetResult)
	require.True(t, ok)
	assert.Equal(t, string(taskRunning), tr.Status)
	assert.Nil(t, tr.Result)
}

func TestTasksFilterGetReturnsCompletedResult(t *testing.T) {
	s := newTestSession(t)
	id := s.tasks.start()
	want := &CallToolResult{Content: []*Content{NewTextContent("done")}}
	s.tasks.put(id, want, nil, time.Minute)
	h := tasksFilter(passthroughHandler(), s)

	raw, err := json.Marshal(&TasksGetParams{TaskID: id})
	require.NoError(t, err)
	result, err := h.Handle(context.Background(), &jsonrpc.Request{Method: methodTasksGet, Params: raw})
	require.NoError(t, err)
	tr := result.(*TasksGetResult)
	assert.Equal(t, string(taskCompleted), tr.Status)
	assert.Same(t, want, tr.Result)
	assert.Empty(t, tr.Error)
}

func TestTasksFilterGetReturnsFailedError(t *testing.T) {
	s := newTestSession(t)
	id := s.tasks.start()
	s.tasks.put(id, nil, assertionError{"task exploded"}, time.Minute)
	h := tasksFilter(passthroughHandler(), s)

	raw, err := json.Marshal(&TasksGetParams{TaskID: id})
	require.NoError(t, err)
	result, err := h.Handle(context.Background(), &jsonrpc.Request{Method: methodTasksGet, Params: raw})
	require.NoError(t, err)
	tr := result.(*TasksGetResult)
	assert.Equal(t, string(taskFailed), tr.Status)
	assert.Equal(t, "task exploded", tr.Error)
}

func TestTasksFilterCancelRunningTask(t *testing.T) {
	s := newTestSession(t)
	id := s.tasks.start()
	h := tasksFilter(passthroughHandler(), s)

	raw, err := json.Marshal(&TasksCancelParams{TaskID: id})
	require.NoError(t, err)
	_, err = h.Handle(context.Background(), &jsonrpc.Request{Method: methodTasksCancel, Params: raw})
	require.NoError(t, err)

	entry, ok := s.tasks.get(id)
	require.True(t, ok)
	assert.Equal(t, taskCancelled, entry.status)
}

func TestTasksFilterCancelRejectsUnknownOrResolvedTask(t *testing.T) {
	s := newTestSession(t)
	h := tasksFilter(passthroughHandler(), s)

	raw, err := json.Marshal(&TasksCancelParams{TaskID: 999})
	require.NoError(t, err)
	_, err = h.Handle(context.Background(), &jsonrpc.Request{Method: methodTasksCancel, Params: raw})
	require.Error(t, err)
}

func TestTasksFilterList(t *testing.T) {
	s := newTestSession(t)
	a := s.tasks.start()
	b := s.tasks.start()
	h := tasksFilter(passthroughHandler(), s)

	result, err := h.Handle(context.Background(), &jsonrpc.Request{Method: methodTasksList})
	require.NoError(t, err)
	tr := result.(*TasksListResult)
	assert.Equal(t, []int64{a, b}, tr.TaskIDs)
}

type assertionError struct{ msg string }

func (e assertionError) Error() string { return e.msg }
