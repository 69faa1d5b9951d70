// internal/server/server.go
//
// TCP server loop for the game.
// Responsibilities:
//   - Listen on the game port and accept connections.
//   - Throttle accepts with an optional fixed delay between them.
//   - Admit or reject each connection by remote address.
//   - Run one session goroutine per connection, all sharing one Env.
//   - Contain session panics and network failures to their connection.
//   - On context cancellation: stop accepting, close live connections and
//     wait for their sessions to finish.

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/robalobadob/battleship/internal/admission"
	"github.com/robalobadob/battleship/internal/protocol"
	"github.com/robalobadob/battleship/internal/session"
)

const msgRejected = "Too many connections from your address, try again later."

// Server accepts players and runs their sessions.
type Server struct {
	env   *session.Env
	admit admission.Admitter
	delay time.Duration
	log   zerolog.Logger

	ln net.Listener

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	shutdown bool
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithAcceptDelay spaces successive accepts by at least d.
func WithAcceptDelay(d time.Duration) Option {
	return func(s *Server) { s.delay = d }
}

// WithAdmitter sets the per-address admission policy.
func WithAdmitter(a admission.Admitter) Option {
	return func(s *Server) { s.admit = a }
}

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a Server for env. Call Listen, then Serve.
func New(env *session.Env, opts ...Option) *Server {
	s := &Server{
		env:   env,
		admit: admission.AllowAll{},
		log:   zerolog.Nop(),
		conns: make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen binds the game port.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.ln = ln
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Serve accepts connections until ctx is cancelled or the listener fails.
// It returns after every session has ended.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("server: Serve called before Listen")
	}
	s.log.Info().
		Str("addr", s.ln.Addr().String()).
		Dur("accept_delay", s.delay).
		Msg("accepting connections")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		s.close()
	}()

	var limiter *rate.Limiter
	if s.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.delay), 1)
	}

	var err error
	for {
		if limiter != nil {
			if werr := limiter.Wait(ctx); werr != nil {
				break
			}
		}
		conn, aerr := s.ln.Accept()
		if aerr != nil {
			if ctx.Err() != nil || errors.Is(aerr, net.ErrClosed) {
				break
			}
			var ne net.Error
			if errors.As(aerr, &ne) && ne.Timeout() {
				s.log.Warn().Err(aerr).Msg("accept")
				time.Sleep(50 * time.Millisecond)
				continue
			}
			err = fmt.Errorf("accept: %w", aerr)
			break
		}
		s.wg.Add(1)
		go s.serveConn(ctx, conn)
	}

	s.close()
	s.wg.Wait()
	s.log.Info().Msg("server stopped")
	return err
}

// serveConn runs one connection to completion.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	log := s.log.With().Str("remote", conn.RemoteAddr().String()).Logger()

	if !s.admit.Admit(ctx, remoteIP(conn)) {
		log.Info().Msg("connection rejected")
		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = protocol.WriteResponse(conn, &protocol.Response{
			Type:    protocol.TypeError,
			Message: msgRejected,
			Next:    protocol.NextMenu,
		})
		_ = conn.Close()
		return
	}
	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)

	sess := session.New(conn, s.env)
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("session", sess.ID()).
				Bytes("stack", debug.Stack()).
				Msg("session panicked")
			s.env.Table.Leave(sess.ID())
			_ = conn.Close()
		}
	}()

	if err := sess.Run(ctx); err != nil {
		log.Debug().Err(err).Str("session", sess.ID()).Msg("session ended with error")
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// close stops the listener and every live connection. Safe to call twice.
func (s *Server) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return
	}
	s.shutdown = true
	_ = s.ln.Close()
	for c := range s.conns {
		_ = c.Close()
	}
}

// Live reports the number of connections with a running session.
func (s *Server) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func remoteIP(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
