// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
	"golang.org/x/time/rate"
)

var slogToMCP = map[slog.Level]LoggingLevel{
	slog.LevelDebug:      LevelDebug,
	slog.LevelInfo:       LevelInfo,
	(slog.LevelInfo + slog.LevelWarn) / 2: LevelNotice,
	slog.LevelWarn:       LevelWarning,
	slog.LevelError:      LevelError,
	slog.LevelError + 4:  LevelCritical,
	slog.LevelError + 8:  LevelAlert,
	slog.LevelError + 12: LevelEmergency,
}

var mcpToSlog = make(map[LoggingLevel]slog.Level)

func init() {
	for sl, ml := range slogToMCP {
		mcpToSlog[ml] = sl
	}
}

func slogLevelToMCP(sl slog.Level) LoggingLevel {
	if ml, ok := slogToMCP[sl]; ok {
		return ml
	}
	return LevelDebug
}

func mcpLevelToSlog(ll LoggingLevel) slog.Level {
	if sl, ok := mcpToSlog[ll]; ok {
		return sl
	}
	return slog.LevelDebug
}

func compareLevels(l1, l2 LoggingLevel) int {
	return cmp.Compare(mcpLevelToSlog(l1), mcpLevelToSlog(l2))
}

// LoggingHandlerOptions configures a LoggingHandler.
type LoggingHandlerOptions struct {
	// LoggerName is the value for the "logger" field of logging notifications.
	LoggerName string
	// RateLimit caps how many notifications/message events are delivered
	// per second; excess records are dropped rather than queued, so a noisy
	// handler can never build up unbounded backpressure against the
	// session's single writer. Zero disables rate limiting.
	RateLimit rate.Limit
	// Burst is the token bucket size backing RateLimit; ignored if
	// RateLimit is zero. Defaults to 1 if RateLimit is set and Burst is 0.
	Burst int
}

// LoggingHandler is a slog.Handler that turns log records into
// notifications/message events on a ServerSession (§4.7), filtered by the
// session's current logging/setLevel and rate-limited so a chatty tool
// cannot flood a slow client.
type LoggingHandler struct {
	opts    LoggingHandlerOptions
	ss      *ServerSession
	limiter *rate.Limiter

	mu      *sync.Mutex
	buf     *bytes.Buffer
	handler slog.Handler
}

// NewLoggingHandler builds a LoggingHandler that logs to ss using a
// slog.JSONHandler as the underlying record formatter.
func NewLoggingHandler(ss *ServerSession, opts *LoggingHandlerOptions) *LoggingHandler {
	var buf bytes.Buffer
	jsonHandler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey || a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	lh := &LoggingHandler{
		ss:      ss,
		mu:      new(sync.Mutex),
		buf:     &buf,
		handler: jsonHandler,
	}
	if opts != nil {
		lh.opts = *opts
		if opts.RateLimit > 0 {
			burst := opts.Burst
			if burst == 0 {
				burst = 1
			}
			lh.limiter = rate.NewLimiter(opts.RateLimit, burst)
		}
	}
	return lh
}

func (h *LoggingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= mcpLevelToSlog(h.ss.currentLogLevel())
}

func (h *LoggingHandler) WithAttrs(as []slog.Attr) slog.Handler {
	h2 := *h
	h2.handler = h.handler.WithAttrs(as)
	return &h2
}

func (h *LoggingHandler) WithGroup(name string) slog.Handler {
	h2 := *h
	h2.handler = h.handler.WithGroup(name)
	return &h2
}

func (h *LoggingHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.limiter != nil && !h.limiter.Allow() {
		return nil
	}

	var err error
	var data []byte
	func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.buf.Reset()
		if err = h.handler.Handle(ctx, r); err == nil {
			data = append(data, h.buf.Bytes()...)
		}
	}()
	if err != nil {
		return err
	}

	params := &LoggingMessageParams{
		Logger: h.opts.LoggerName,
		Level:  slogLevelToMCP(r.Level),
		Data:   json.RawMessage(data),
	}
	return h.ss.Notify(ctx, methodLoggingMessage, params)
}

func (s *ServerSession) handleSetLevel(ctx context.Context, req *jsonrpc.Request) (*emptyResult, error) {
	params, err := unmarshalParams[SetLevelParams](req.Params)
	if err != nil {
		return nil, err
	}
	switch params.Level {
	case LevelDebug, LevelInfo, LevelNotice, LevelWarning, LevelError, LevelCritical, LevelAlert, LevelEmergency:
	default:
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "unknown logging level %q", params.Level)
	}
	s.setLogLevel(params.Level)
	return &emptyResult{}, nil
}
