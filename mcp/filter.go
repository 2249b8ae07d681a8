package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

// RequestFilter wraps a jsonrpc.Handler with cross-cutting behavior:
// metrics, auth, rate limiting. It has no direct teacher analog (the
// reference implementation wires logging and metrics ad hoc); it exists so
// a host can compose its own chain without editing ServerSession.handle.
type RequestFilter func(jsonrpc.Handler) jsonrpc.Handler

// chainFilters applies filters in the order given, so the first filter in
// the slice is the outermost wrapper and runs first on the way in.
func chainFilters(h jsonrpc.Handler, filters ...RequestFilter) jsonrpc.Handler {
	for i := len(filters) - 1; i >= 0; i-- {
		h = filters[i](h)
	}
	return h
}

// metricsFilter records RequestHandled for every dispatched method.
func metricsFilter(m MetricsRecorder) RequestFilter {
	return func(next jsonrpc.Handler) jsonrpc.Handler {
		return jsonrpc.HandlerFunc(func(ctx context.Context, req *jsonrpc.Request) (any, error) {
			start := time.Now()
			result, err := next.Handle(ctx, req)
			m.RequestHandled(req.Method, time.Since(start), err)
			return result, err
		})
	}
}

// pollingKey is the context key deferredDeliveryFilter uses to pass a
// mutable signal box down to whatever inner filter decides, mid-request,
// that this call-tool response should be deferred.
type pollingKey struct{}

type pollingSignal struct {
	enabled   bool
	retention time.Duration
}

// EnablePolling marks the in-flight call-tool request carried by ctx for
// deferred delivery: once the tool handler returns, deferredDeliveryFilter
// stores the result in the session's task store instead of writing it to
// the request that's still waiting on it, and forces the client to
// reconnect and retrieve it through the resumable event stream (§6,
// "Filter chain"). A filter calls this before invoking the next handler in
// the chain; calling it outside a call-tool request, or when no task store
// is configured, is a no-op.
func EnablePolling(ctx context.Context, retention time.Duration) {
	if sig, ok := ctx.Value(pollingKey{}).(*pollingSignal); ok {
		sig.enabled = true
		sig.retention = retention
	}
}

// deferredDeliveryFilter implements the §6 enablePolling contract for
// tools/call. It is only installed when a Server is created with
// ServerOptions.EnableTasks, matching "when configured, the tasks
// capability is advertised."
func deferredDeliveryFilter(s *ServerSession) RequestFilter {
	return func(next jsonrpc.Handler) jsonrpc.Handler {
		return jsonrpc.HandlerFunc(func(ctx context.Context, req *jsonrpc.Request) (any, error) {
			if req.Method != methodCallTool {
				return next.Handle(ctx, req)
			}

			sig := &pollingSignal{}
			id := s.tasks.start()
			result, err := next.Handle(context.WithValue(ctx, pollingKey{}, sig), req)
			if !sig.enabled {
				return result, err
			}

			toolResult, _ := result.(*CallToolResult)
			s.tasks.put(id, toolResult, err, sig.retention)

			if notifyErr := s.Notify(ctx, methodTaskCompleted, &TaskCompletedParams{TaskID: id}); notifyErr != nil {
				s.log.WarnContext(ctx, "failed to notify deferred task completion", "taskId", id, "err", notifyErr)
			}
			s.forceReconnect()

			return &CallToolResult{
				Content: []*Content{NewTextContent(fmt.Sprintf("result deferred to task %d; reconnect to receive it or call tasks/get", id))},
				Meta:    &Meta{Data: map[string]any{"taskId": id}},
			}, nil
		})
	}
}

const (
	methodTasksGet    = "tasks/get"
	methodTasksCancel = "tasks/cancel"
	methodTasksList   = "tasks/list"

	// methodTaskCompleted is the notification deferredDeliveryFilter sends
	// when a deferred task finishes; for a Streamable-HTTP session it has
	// no pending POST to match, so it lands in the resumable event log,
	// which is exactly what a client replays after reconnecting with
	// Last-Event-ID.
	methodTaskCompleted = "notifications/tasks/completed"
)

// tasksFilter answers tasks/get, tasks/cancel, and tasks/list from the
// session's task store, serving both deferred results from
// deferredDeliveryFilter and tasks a host started directly with
// ServerSession.tasks.start. It is installed alongside
// deferredDeliveryFilter, under the same EnableTasks flag.
func tasksFilter(next jsonrpc.Handler, s *ServerSession) jsonrpc.Handler {
	return jsonrpc.HandlerFunc(func(ctx context.Context, req *jsonrpc.Request) (any, error) {
		switch req.Method {
		case methodTasksGet:
			params, err := unmarshalParams[TasksGetParams](req.Params)
			if err != nil {
				return nil, err
			}
			entry, ok := s.tasks.get(params.TaskID)
			if !ok {
				return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "unknown task id %d", params.TaskID)
			}
			result := &TasksGetResult{Status: string(entry.status)}
			if entry.status == taskCompleted {
				result.Result = entry.result
			}
			if entry.status == taskFailed && entry.err != nil {
				result.Error = entry.err.Error()
			}
			return result, nil

		case methodTasksCancel:
			params, err := unmarshalParams[TasksCancelParams](req.Params)
			if err != nil {
				return nil, err
			}
			if !s.tasks.cancel(params.TaskID) {
				return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "task %d is not running", params.TaskID)
			}
			return &emptyResult{}, nil

		case methodTasksList:
			return &TasksListResult{TaskIDs: s.tasks.list()}, nil

		default:
			return next.Handle(ctx, req)
		}
	})
}

type TasksGetParams struct {
	Meta   *Meta `json:"_meta,omitempty"`
	TaskID int64 `json:"taskId"`
}

func (p *TasksGetParams) GetMeta() *Meta  { return p.Meta }
func (p *TasksGetParams) SetMeta(m *Meta) { p.Meta = m }

type TasksGetResult struct {
	Meta   *Meta           `json:"_meta,omitempty"`
	Status string          `json:"status"`
	Result *CallToolResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (r *TasksGetResult) GetMeta() *Meta  { return r.Meta }
func (r *TasksGetResult) SetMeta(m *Meta) { r.Meta = m }

type TasksCancelParams struct {
	Meta   *Meta `json:"_meta,omitempty"`
	TaskID int64 `json:"taskId"`
}

func (p *TasksCancelParams) GetMeta() *Meta  { return p.Meta }
func (p *TasksCancelParams) SetMeta(m *Meta) { p.Meta = m }

type TasksListResult struct {
	Meta    *Meta   `json:"_meta,omitempty"`
	TaskIDs []int64 `json:"taskIds"`
}

func (r *TasksListResult) GetMeta() *Meta  { return r.Meta }
func (r *TasksListResult) SetMeta(m *Meta) { r.Meta = m }

type TaskCompletedParams struct {
	Meta   *Meta `json:"_meta,omitempty"`
	TaskID int64 `json:"taskId"`
}

func (p *TaskCompletedParams) GetMeta() *Meta  { return p.Meta }
func (p *TaskCompletedParams) SetMeta(m *Meta) { p.Meta = m }
