package httpapi

import (
	"net/http"
	"time"

	"github.com/DoyleJ11/football-auction-backend/internal/catalog"
	"github.com/DoyleJ11/football-auction-backend/internal/hub"
	"github.com/DoyleJ11/football-auction-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func SetupRoutes(h *hub.Hub, cat *catalog.Catalog, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))

	r.Route("/lobbies", func(r chi.Router) {
		r.Post("/", CreateLobby(h, log))
		r.Get("/", ListLobbies(h))
		r.Get("/{code}", GetLobby(h))
		r.Delete("/{code}", DeleteLobby(h))
		r.Post("/{code}/commands", LobbyCommand(h))
	})

	if cat != nil {
		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Get("/players", ListPlayers(cat))
			r.Get("/players/random", RandomPlayer(cat))
			r.Get("/players/count", CountPlayers(cat))
			r.Get("/meta/clubs", ListClubs(cat))
		})
	}
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
