package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/playperu/streetrep/internal/leaderboard"
	"github.com/playperu/streetrep/internal/mission"
	"github.com/playperu/streetrep/internal/scoring"
	"github.com/playperu/streetrep/internal/store"
	"github.com/playperu/streetrep/internal/worldevent"
)

// Services is everything the handlers and the blackout loop work with.
type Services struct {
	Store     *store.Store
	Scoring   *scoring.Engine
	Missions  *mission.Catalog
	Blackouts *worldevent.Scheduler
	// Board defaults to ranking straight from the players table.
	Board  leaderboard.Board
	Broker *Broker
	Logger *slog.Logger
	Now    func() time.Time
}

func (s *Services) withDefaults() *Services {
	if s.Board == nil {
		s.Board = sqlBoard{s.Store}
	}
	if s.Broker == nil {
		s.Broker = NewBroker()
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}

// sqlBoard serves the leaderboard from the players table.
type sqlBoard struct{ st *store.Store }

func (sqlBoard) Record(context.Context, string, string, int) error { return nil }

func (b sqlBoard) Top(ctx context.Context, n int) ([]leaderboard.Standing, error) {
	return b.st.TopPlayers(ctx, n)
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New builds the HTTP server. mount, when non-nil, adds routes owned by
// the caller (health checks).
func New(addr string, svc *Services, mount func(r chi.Router)) *Server {
	svc.withDefaults()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(svc.Logger))
	r.Use(middleware.Recoverer)

	addRoutes(r, svc)
	if mount != nil {
		mount(r)
	}

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: svc.Logger,
	}
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until Shutdown. Request contexts derive from ctx so open
// feeds end when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				level := slog.LevelInfo
				switch status := ww.Status(); {
				case status >= 500:
					level = slog.LevelError
				case status >= 400:
					level = slog.LevelWarn
				}
				logger.Log(r.Context(), level, "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"route", routePattern(r),
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
