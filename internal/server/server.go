package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mentora/realtime/internal/relay"
	"github.com/mentora/realtime/internal/rooms"
)

// Server bundles the relays, the room metadata store, and the transport
// policy behind the HTTP surface.
type Server struct {
	cfg      *Config
	rooms    *rooms.Store
	collab   *relay.CollabRelay
	chat     *relay.ChatRelay
	origin   *originPolicy
	upgrader websocket.Upgrader
}

// New wires a Server from its collaborators.
func New(cfg *Config, store *rooms.Store, collab *relay.CollabRelay, chat *relay.ChatRelay) *Server {
	s := &Server{
		cfg:    cfg,
		rooms:  store,
		collab: collab,
		chat:   chat,
		origin: newOriginPolicy(cfg.AllowedOrigins),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origin.checkRequest,
	}
	return s
}

// CreateServer creates and configures an HTTP server with the specified
// address and handler. It sets reasonable timeout values for production use;
// WebSocket connections are hijacked from the listener and keep their own
// deadlines.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartServer starts the HTTP server and begins listening for connections.
func StartServer(server *http.Server) error {
	log.Printf("Server listening on %s", server.Addr)
	return server.ListenAndServe()
}

// ShutdownServer gracefully shuts down the HTTP server without interrupting
// active connections, waiting until they close or the timeout is reached.
func ShutdownServer(server *http.Server, timeout time.Duration) error {
	log.Println("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		return err
	}

	log.Println("HTTP server shutdown completed")
	return nil
}
