package mcp

import (
	"context"
	"io"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTransportRoundTripsThroughSubprocess(t *testing.T) {
	catPath, err := exec.LookPath("cat")
	if err != nil {
		t.Skip("cat not available")
	}

	transport := NewCommandTransport(exec.Command(catPath))
	rwc, err := transport.Connect(context.Background())
	require.NoError(t, err)

	_, err = rwc.Write([]byte("hello\n"))
	require.NoError(t, err)

	buf := make([]byte, 6)
	_, err = io.ReadFull(rwc, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(buf))

	assert.NoError(t, rwc.Close())
}

func TestCommandTransportConnectPropagatesStartError(t *testing.T) {
	transport := NewCommandTransport(exec.Command("/nonexistent/binary/does-not-exist"))
	_, err := transport.Connect(context.Background())
	assert.Error(t, err)
}
