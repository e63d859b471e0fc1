package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/shadowchat/shadowchat/internal/config"
	"github.com/shadowchat/shadowchat/internal/server"
	"github.com/shadowchat/shadowchat/internal/stats"
)

// App is the transport surface in front of the room gateway: room minting over
// HTTP and the websocket connection endpoint.
type App struct {
	log            *log.Logger
	mux            *http.Server
	gateway        *server.Gateway
	stats          stats.StatsProvider
	allowedOrigins []string
}

func NewApp(mux *http.ServeMux, logger *log.Logger, gw *server.Gateway, su stats.StatsProvider, cfg *config.Config) *App {
	s := &App{
		log:            logger,
		gateway:        gw,
		stats:          su,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /create-room", s.createRoom)
	mux.HandleFunc("GET /ws/{room_id}", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *App) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *App) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
