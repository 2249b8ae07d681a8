// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/mcp-runtime-go/jsonrpc"
)

// CommandTransport runs a command and communicates with it over its
// stdin/stdout, newline-delimited JSON framed, per §6.1's stdio binding.
// It takes ownership of the command: Connect starts it, and the returned
// stream's Close carries out the spec's three-step shutdown sequence.
type CommandTransport struct {
	cmd *exec.Cmd
}

// NewCommandTransport returns a CommandTransport that will run cmd.
func NewCommandTransport(cmd *exec.Cmd) *CommandTransport {
	return &CommandTransport{cmd}
}

func (t *CommandTransport) Framer() jsonrpc.Framer { return &ndjsonFramer{} }

func (t *CommandTransport) Connect(ctx context.Context) (io.ReadWriteCloser, error) {
	stdout, err := t.cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stdout = io.NopCloser(stdout) // the connection closes by closing stdin, not stdout
	stdin, err := t.cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := t.cmd.Start(); err != nil {
		return nil, err
	}
	return &pipeRWC{cmd: t.cmd, stdout: stdout, stdin: stdin}, nil
}

type pipeRWC struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stdin  io.WriteCloser
}

func (s *pipeRWC) Read(p []byte) (int, error)  { return s.stdout.Read(p) }
func (s *pipeRWC) Write(p []byte) (int, error) { return s.stdin.Write(p) }

// Close implements the stdio shutdown sequence (§6.1): close stdin, wait,
// escalate to SIGTERM then SIGKILL if the child doesn't exit on its own.
func (s *pipeRWC) Close() error {
	if err := s.stdin.Close(); err != nil {
		return fmt.Errorf("mcp: closing stdin: %w", err)
	}
	resChan := make(chan error, 1)
	go func() { resChan <- s.cmd.Wait() }()
	wait := func() (error, bool) {
		select {
		case err := <-resChan:
			return err, true
		case <-time.After(5 * time.Second):
		}
		return nil, false
	}
	if err, ok := wait(); ok {
		return err
	}
	if err := s.cmd.Process.Signal(syscall.SIGTERM); err == nil {
		if err, ok := wait(); ok {
			return err
		}
	}
	if err := s.cmd.Process.Kill(); err != nil {
		return err
	}
	if err, ok := wait(); ok {
		return err
	}
	return fmt.Errorf("mcp: unresponsive subprocess")
}
