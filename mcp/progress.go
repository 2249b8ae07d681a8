// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

// progressSender is attached to a tool invocation's context so the handler
// can report progress without knowing about the session or the request's
// progress token. ReportProgress is a no-op if the inbound request carried
// no progress token (§4.3: unknown or absent tokens are dropped silently,
// per Open Question #2).
type progressSender struct {
	session *ServerSession
	token   ProgressToken
}

type progressSenderKey struct{}

func withProgressSender(ctx context.Context, p *progressSender) context.Context {
	return context.WithValue(ctx, progressSenderKey{}, p)
}

// ReportProgress emits a notifications/progress message correlated with
// the in-flight request's progress token, if the caller supplied one. It
// is safe to call from any tool, prompt, or resource handler.
func ReportProgress(ctx context.Context, progress, total float64, message string) error {
	p, ok := ctx.Value(progressSenderKey{}).(*progressSender)
	if !ok || p == nil || !p.token.IsValid() {
		return nil
	}
	return p.session.Notify(ctx, methodProgress, &ProgressParams{
		ProgressToken: p.token,
		Progress:      progress,
		Total:         total,
		Message:       message,
	})
}

// handleProgressNotification processes a notifications/progress message
// received from the client side of a server-initiated request (e.g. during
// sampling); the runtime has no registered listeners for these today, so
// they are logged at debug level and dropped.
func (s *ServerSession) handleProgressNotification(ctx context.Context, req *jsonrpc.Request) error {
	params, err := unmarshalParams[ProgressParams](req.Params)
	if err != nil {
		return nil
	}
	s.log.DebugContext(ctx, "progress notification", "token", params.ProgressToken.String(), "progress", params.Progress)
	return nil
}
