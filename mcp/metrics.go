package mcp

import "time"

// MetricsRecorder is the pluggable observability sink the runtime calls on
// the request and tool-invocation hot paths. The spec leaves telemetry
// sinks unspecified; this interface exists so a host can plug in whatever
// it wants (Prometheus by default, see cmd/mcprtd) without the core
// package depending on one backend.
type MetricsRecorder interface {
	RequestHandled(method string, duration time.Duration, err error)
	ToolInvoked(name string, duration time.Duration, timedOut bool, err error)
	SessionOpened()
	SessionClosed()
}

type noopMetrics struct{}

func (noopMetrics) RequestHandled(string, time.Duration, error)       {}
func (noopMetrics) ToolInvoked(string, time.Duration, bool, error)    {}
func (noopMetrics) SessionOpened()                                    {}
func (noopMetrics) SessionClosed()                                    {}
