package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskvox/internal/action"
	"deskvox/internal/history"
	"deskvox/internal/nlu"
)

// socketPath stays short; unix socket paths are limited to ~100 bytes.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "dv")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func serve(t *testing.T, h Handler) string {
	t.Helper()
	socket := socketPath(t)
	srv, err := Listen(socket, h)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return socket
}

func TestRoundTrip(t *testing.T) {
	socket := serve(t, func(_ context.Context, req Request) Response {
		switch req.Cmd {
		case CmdRun:
			return Response{OK: true, Result: &action.Result{
				Success: true,
				Action:  nlu.ActionOpen,
				Target:  req.Text,
				Message: "opened " + req.Text + " in " + req.Language,
			}}
		case CmdHistory:
			entries := make([]history.Entry, req.Limit)
			for i := range entries {
				entries[i].Transcript = "t"
			}
			return Response{OK: true, History: entries}
		}
		return Response{Error: "unknown command " + req.Cmd}
	})
	ctx := context.Background()

	resp, err := Send(ctx, socket, Request{Cmd: CmdRun, Text: "Chrome", Language: "en"})
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.NotNil(t, resp.Result)
	assert.Equal(t, nlu.ActionOpen, resp.Result.Action)
	assert.Equal(t, "opened Chrome in en", resp.Result.Message)

	resp, err = Send(ctx, socket, Request{Cmd: CmdHistory, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, resp.History, 3)

	resp, err = Send(ctx, socket, Request{Cmd: "dance"})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, "unknown command dance", resp.Error)
}

func TestMalformedRequest(t *testing.T) {
	called := false
	socket := serve(t, func(context.Context, Request) Response {
		called = true
		return Response{OK: true}
	})

	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("{not json\n"))
	require.NoError(t, err)

	buf := make([]byte, 512)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "decode request")
	assert.False(t, called)
}

func TestListen_ReplacesStaleSocket(t *testing.T) {
	socket := socketPath(t)
	require.NoError(t, os.WriteFile(socket, nil, 0o600))

	srv, err := Listen(socket, func(context.Context, Request) Response { return Response{} })
	require.NoError(t, err)
	assert.Equal(t, socket, srv.Socket())
	assert.NoError(t, srv.Close())
}

func TestSend_NoDaemon(t *testing.T) {
	_, err := Send(context.Background(), socketPath(t), Request{Cmd: CmdReset})
	assert.Error(t, err)
}
