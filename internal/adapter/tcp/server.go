package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/app/order"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

const writeTimeout = 5 * time.Second

type ServerConfig struct {
	Address           string
	DisconnectRetries int
	RetryDelay        time.Duration
	// CloseTimeout bounds the disconnect cleanup of one session.
	CloseTimeout time.Duration
}

// Server accepts customer connections and runs one session per connection.
type Server struct {
	cfg    ServerConfig
	cafe   interfaces.CafeService
	logger logger.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

func NewServer(cfg ServerConfig, cafe interfaces.CafeService, logger logger.Logger) *Server {
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	return &Server{
		cfg:    cfg,
		cafe:   cafe,
		logger: logger,
		conns:  make(map[net.Conn]struct{}),
	}
}

// Run listens on the configured address until ctx is done, then closes every
// connection and waits for their sessions to finish cleanup.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("server_started", fmt.Sprintf("Café is open on %s", ln.Addr()), "", nil)

	go func() {
		<-ctx.Done()
		ln.Close()
		s.closeConns()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				s.logger.Info("server_stopped", "Café is closed", "", nil)
				return nil
			}
			s.logger.Error("accept_failed", "Failed to accept connection", "", nil, err)
			continue
		}

		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConn(conn)
		}()
	}
}

// Addr is the bound address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

// lineWriter serialises replies and pushed notifications onto one connection.
type lineWriter struct {
	mu   sync.Mutex
	conn net.Conn
}

func (w *lineWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := w.conn.Write([]byte(line + "\n"))
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	out := &lineWriter{conn: conn}
	sess := order.NewSession(s.cafe, s.logger, func(line string) {
		if err := out.WriteLine(line); err != nil {
			s.logger.Debug("push_failed", "Failed to push notification", "", nil)
		}
	}, s.cfg.DisconnectRetries, s.cfg.RetryDelay)
	reqID := sess.RequestID()

	s.logger.Debug("connection_accepted", fmt.Sprintf("Connection from %s", conn.RemoteAddr()), reqID, nil)

	out.WriteLine(order.MsgWelcome)
	out.WriteLine(order.MsgAskName)

	in := bufio.NewScanner(conn)
	if !in.Scan() {
		return
	}
	name := strings.TrimRight(in.Text(), "\r")
	reply, err := sess.Join(name)
	out.WriteLine(reply)
	if err != nil {
		return
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CloseTimeout)
		defer cancel()
		sess.Close(ctx)
	}()

	for in.Scan() {
		line := strings.TrimRight(in.Text(), "\r")
		cmd := ParseCommand(line)

		switch cmd.Kind {
		case CommandExit:
			out.WriteLine(order.MsgExit)
			return
		case CommandCollect:
			out.WriteLine(sess.Collect())
		case CommandStatus:
			out.WriteLine(sess.Status())
		case CommandOrder:
			if !cmd.Valid() {
				out.WriteLine(order.MsgInvalidOrder)
				continue
			}
			out.WriteLine(sess.Order(cmd.Teas, cmd.Coffees))
		default:
			out.WriteLine(order.MsgInvalid)
		}
	}

	if err := in.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Debug("connection_read_failed", err.Error(), reqID, nil)
	}
}
