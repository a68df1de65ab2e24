package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/jpratt/go-relay/internal/config"
	"github.com/jpratt/go-relay/internal/database"
	"github.com/jpratt/go-relay/internal/server"
)

type RelayApp struct {
	log            *log.Logger
	db             database.RelayRepository
	mux            *http.Server
	rs             *server.RelayServer
	allowedOrigins []string
}

func NewRelayApp(mux *http.ServeMux, logger *log.Logger, rs *server.RelayServer, db database.RelayRepository, cfg *config.Config) *RelayApp {
	s := &RelayApp{
		log:            logger,
		db:             db,
		rs:             rs,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("GET /api/messages", s.getMessages)
	mux.HandleFunc("GET /api/messages/search", s.searchMessages)
	mux.HandleFunc("GET /api/users", s.getOnlineUsers)
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *RelayApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *RelayApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
