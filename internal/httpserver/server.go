// internal/httpserver/server.go
//
// Ops HTTP surface for the battleship server.
// Responsibilities:
//   - Router + middleware (JSON, timeouts, panic recovery, request IDs, access log).
//   - Diagnostics: "/", "/health".
//   - Game views mounted from routes_game.go: /leaderboard, /round, /connections.
//   - Prometheus metrics at /metrics.
//
// Notes:
//   - Read-only. Nothing here mutates the round or the leaderboard.
//   - The original board is never exposed.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/robalobadob/battleship/internal/connlog"
	"github.com/robalobadob/battleship/internal/game"
	"github.com/robalobadob/battleship/internal/leaderboard"
)

// Players is the read side of the leaderboard.
type Players interface {
	Snapshot() []leaderboard.Player
}

// Server bundles the router and the views it serves.
type Server struct {
	r       *chi.Mux
	table   *game.Table
	players Players
	connlog connlog.Logger
	log     zerolog.Logger
}

// New constructs a Server, installs middleware, and registers routes.
func New(table *game.Table, players Players, cl connlog.Logger, log zerolog.Logger) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		table:   table,
		players: players,
		connlog: cl,
		log:     log.With().Str("component", "ops").Logger(),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                // add X-Request-ID
	s.r.Use(chimw.RealIP)                   // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(s.requestLogger)                // zerolog access log
	s.r.Use(chimw.Recoverer)                // recover from panics
	s.r.Use(chimw.Timeout(5 * time.Second)) // bound handler time

	// --- diagnostics ---
	s.r.With(jsonContentType).Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"battleship","endpoints":["/health","/leaderboard","/round","/connections","/metrics"]}`))
	})
	s.r.With(jsonContentType).Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.mountGame(s.r.With(jsonContentType))

	s.r.Handle("/metrics", promhttp.Handler())

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","path":"` + r.URL.Path + `"}`))
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("ops http listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requestLogger writes one debug line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("http request")
	})
}
