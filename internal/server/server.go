// Package server exposes a command.Executor over TCP and HTTP.
package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RezDev94/ferris-db/internal/logger"
)

// Executor runs one protocol line and returns the full response.
type Executor interface {
	Execute(line string) string
}

// Server accepts TCP connections and serves the line protocol, one
// goroutine per connection.
type Server struct {
	addr string
	exec Executor

	mu        sync.Mutex
	listener  net.Listener
	conns     map[net.Conn]struct{}
	closed    bool
	done      chan struct{}
	ready     chan struct{}
	readyOnce sync.Once
	wg        sync.WaitGroup
}

func New(addr string, exec Executor) *Server {
	return &Server{
		addr:  addr,
		exec:  exec,
		conns: make(map[net.Conn]struct{}),
		done:  make(chan struct{}),
		ready: make(chan struct{}),
	}
}

// Start listens and serves until ctx is cancelled or Close is called.
func (s *Server) Start(ctx context.Context) error {
	defer s.markReady()
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, l)
}

func (s *Server) serve(ctx context.Context, l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = l.Close()
		return nil
	}
	s.listener = l
	s.mu.Unlock()
	s.markReady()

	logger.Infof("ferris-db server listening on %s", l.Addr())

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	var delay time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if s.isClosed() {
				s.wg.Wait()
				return nil
			}
			delay = nextDelay(delay)
			logger.Warnf("accept: %v; retrying in %v", err, delay)
			select {
			case <-time.After(delay):
			case <-s.done:
			}
			continue
		}
		delay = 0
		if !s.track(conn) {
			_ = conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConn(conn)
		}()
	}
}

// nextDelay backs off failed accepts from 5ms up to one second.
func nextDelay(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	return min(2*d, time.Second)
}

func (s *Server) markReady() { s.readyOnce.Do(func() { close(s.ready) }) }

// Ready is closed once the listener is bound, or once Start has returned
// without binding.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound address, or nil before Start has bound.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting and drops every open connection. A command already
// executing still completes; only its response write fails.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	for c := range s.conns {
		_ = c.Close()
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	id := uuid.NewString()
	peer := conn.RemoteAddr().String()
	logger.Infof("connection %s opened from %s", id, peer)
	defer logger.Infof("connection %s closed", id)

	if err := Serve(conn, conn, s.exec); err != nil {
		logger.Warnf("connection %s: %v", id, err)
	}
}

// Serve reads lines from r until EOF, writing one response per line to w.
// A trailing line without a newline is still executed.
func Serve(r io.Reader, w io.Writer, exec Executor) error {
	rd := bufio.NewReader(r)
	for {
		line, err := rd.ReadString('\n')
		if len(line) > 0 {
			if _, werr := io.WriteString(w, exec.Execute(line)); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
