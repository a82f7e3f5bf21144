// File: server/server.go
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/lguibr/keypass/bollywood"
	"github.com/lguibr/keypass/game"
	"github.com/lguibr/keypass/utils"
	"github.com/rs/zerolog/log"
)

// Server exposes the room manager over HTTP and websockets.
type Server struct {
	r      *chi.Mux
	engine *bollywood.Engine
	rooms  *game.Rooms
	cfg    utils.Config
}

// New builds the router for the rooms served by the RoomManagerActor at
// roomManagerPID.
func New(engine *bollywood.Engine, roomManagerPID *bollywood.PID, cfg utils.Config) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		engine: engine,
		rooms:  game.NewRooms(engine, roomManagerPID, cfg.AskTimeout),
		cfg:    cfg,
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Route("/rooms", func(r chi.Router) {
		r.Get("/", s.handleListRooms)
		r.Post("/", s.handleCreateRoom)

		r.Route("/{roomID}", func(r chi.Router) {
			r.Use(s.roomCtx)
			r.Delete("/", s.handleDeleteRoom)
			r.Get("/state", s.handleState)
			r.Get("/subscribe", s.handleSubscribe)
			r.Post("/players", s.handleJoin)
			r.Post("/players/{playerID}/ready", s.handleReady)
			r.Post("/players/{playerID}/move", s.handleMove)
		})
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found: "+r.URL.Path)
	})

	return s
}

// Router exposes the router (useful for tests).
func (s *Server) Router() http.Handler { return s.r }

// HTTPServer wraps the router in an http.Server listening on the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// requestLogger writes one structured access line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("requestId", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}
