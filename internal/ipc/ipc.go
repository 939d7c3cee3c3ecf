// Package ipc carries one JSON request and one JSON response per unix
// socket connection between deskvox-ctl and the daemon.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"

	"deskvox/internal/action"
	"deskvox/internal/history"
)

const DefaultSocket = "/tmp/deskvox.sock"

const (
	CmdRun        = "run"
	CmdReset      = "reset"
	CmdListen     = "listen"
	CmdTranscribe = "transcribe"
	CmdHistory    = "history"
)

type Request struct {
	Cmd      string `json:"cmd"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
	Path     string `json:"path,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type Response struct {
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	Result  *action.Result  `json:"result,omitempty"`
	History []history.Entry `json:"history,omitempty"`
}

// Failed builds an error response.
func Failed(err error) Response {
	return Response{Error: err.Error()}
}

type Handler func(ctx context.Context, req Request) Response

type Server struct {
	socket  string
	handler Handler
	ln      net.Listener
	wg      sync.WaitGroup
}

// Listen binds socket, replacing a stale socket file left by a previous
// daemon.
func Listen(socket string, handler Handler) (*Server, error) {
	if socket == "" {
		socket = DefaultSocket
	}
	if err := os.Remove(socket); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return &Server{socket: socket, handler: handler, ln: ln}, nil
}

func (s *Server) Socket() string { return s.socket }

// Serve accepts connections until ctx is cancelled, then waits for the
// in-flight requests to finish.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()
	defer s.wg.Wait()

	log.Info("IPC listening", "socket", s.socket)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn("Accept failed", "err", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) Close() error {
	err := s.ln.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		log.Debug("Bad ipc request", "err", err)
		_ = json.NewEncoder(conn).Encode(Failed(fmt.Errorf("decode request: %w", err)))
		return
	}
	log.Debug("IPC request", "cmd", req.Cmd)

	resp := s.handler(ctx, req)
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		log.Warn("Failed to write ipc response", "cmd", req.Cmd, "err", err)
	}
}

// Send delivers req to the daemon listening on socket and waits for its
// response.
func Send(ctx context.Context, socket string, req Request) (Response, error) {
	if socket == "" {
		socket = DefaultSocket
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return Response{}, fmt.Errorf("dial %s: %w", socket, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("send: %w", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}
