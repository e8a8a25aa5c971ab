// Package monitor serves a read-only, authenticated view of the keyboard's
// currently pressed keys over TCP, for host tooling that wants to observe
// the core without being able to mutate it: there is no remapping opcode on
// this wire, only a one-way stream of InputState snapshots.
package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/Alia5/kbcore/device/keyboard"
	"github.com/Alia5/kbcore/monitor/auth"
)

// Source supplies the current pressed-keys snapshot. *engine.Engine
// satisfies this.
type Source interface {
	Snapshot() keyboard.InputState
}

// maxFrameSize bounds a marshaled InputState: 1 modifier byte + 1 count
// byte + up to 256 key codes.
const maxFrameSize = 258

// Config controls the monitor server's timing.
type Config struct {
	// PushInterval is how often a connected client receives a fresh
	// snapshot. Default 8ms (matches typical USB HID polling cadence).
	PushInterval time.Duration
}

const defaultPushInterval = 8 * time.Millisecond

// Server accepts monitor connections, authenticates each with the shared
// key, and streams InputState snapshots to it until it disconnects.
type Server struct {
	source Source
	key    []byte
	cfg    Config
	logger *slog.Logger
	ln     net.Listener
}

// New builds a Server. key is the shared secret used for the handshake
// (see monitor/auth); it is never transmitted.
func New(source Source, key []byte, cfg Config, logger *slog.Logger) *Server {
	if cfg.PushInterval <= 0 {
		cfg.PushInterval = defaultPushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{source: source, key: key, cfg: cfg, logger: logger}
}

// ListenAndServe binds addr and serves monitor connections until the
// listener is closed.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("monitor server listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || strings.Contains(strings.ToLower(err.Error()), "use of closed network connection") {
				s.logger.Info("monitor server stopped")
				return nil
			}
			s.logger.Error("monitor accept error", "error", err)
			continue
		}
		s.logger.Info("monitor client connected", "remote", conn.RemoteAddr())
		go s.handleConn(conn)
	}
}

// Addr returns the bound listen address, or "" before ListenAndServe binds.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return ""
}

// Close stops the server by closing its listener.
func (s *Server) Close() error {
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	clientNonce, serverNonce, err := auth.HandleAuthHandshake(r, conn, s.key, false)
	if err != nil {
		s.logger.Warn("monitor handshake failed", "remote", conn.RemoteAddr(), "error", err)
		var authErr *auth.Error
		if errors.As(err, &authErr) {
			if b, mErr := json.Marshal(authErr); mErr == nil {
				_, _ = conn.Write(append(b, '\n'))
			}
		}
		return
	}

	sessionKey := auth.DeriveSessionKey(s.key, serverNonce, clientNonce)
	sealed, err := auth.WrapConn(conn, sessionKey)
	if err != nil {
		s.logger.Error("monitor session setup failed", "error", err)
		return
	}

	ticker := time.NewTicker(s.cfg.PushInterval)
	defer ticker.Stop()

	for range ticker.C {
		snap := s.source.Snapshot()
		data, err := snap.MarshalBinary()
		if err != nil {
			s.logger.Error("monitor marshal failed", "error", err)
			return
		}
		if _, err := sealed.Write(data); err != nil {
			s.logger.Info("monitor client disconnected", "remote", conn.RemoteAddr(), "error", err)
			return
		}
	}
}

// Client is a connected monitor session: a one-way stream of InputState
// snapshots from a kbcore core.
type Client struct {
	conn net.Conn
}

// Dial connects to a monitor server at addr and performs the client side of
// the handshake using key.
func Dial(ctx context.Context, addr string, key []byte) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial monitor: %w", err)
	}

	r := bufio.NewReader(conn)
	clientNonce, serverNonce, err := auth.HandleAuthHandshake(r, conn, key, true)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("monitor handshake: %w", err)
	}

	sessionKey := auth.DeriveSessionKey(key, serverNonce, clientNonce)
	sealed, err := auth.WrapConn(conn, sessionKey)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("monitor session setup: %w", err)
	}

	return &Client{conn: sealed}, nil
}

// Next blocks until the next InputState snapshot arrives.
func (c *Client) Next() (keyboard.InputState, error) {
	buf := make([]byte, maxFrameSize)
	n, err := c.conn.Read(buf)
	if err != nil {
		return keyboard.InputState{}, err
	}
	var st keyboard.InputState
	if err := st.UnmarshalBinary(buf[:n]); err != nil {
		return keyboard.InputState{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return st, nil
}

// Close disconnects from the monitor server.
func (c *Client) Close() error {
	return c.conn.Close()
}
