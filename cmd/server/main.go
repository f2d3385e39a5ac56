package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mentora/realtime/internal/ids"
	"github.com/mentora/realtime/internal/observability"
	"github.com/mentora/realtime/internal/relay"
	"github.com/mentora/realtime/internal/rooms"
	"github.com/mentora/realtime/internal/server"
)

func main() {
	cfg := server.LoadConfig()

	metrics := observability.NewMetrics()
	gen := ids.NewGenerator()
	store := rooms.NewStore(gen)

	collab := relay.NewCollabRelay(store, metrics)
	chat := relay.NewChatRelay(store, gen, cfg.HistoryLimit, metrics)

	srv := server.New(cfg, store, collab, chat)
	httpServer := server.CreateServer(cfg.Addr(), srv.Router())

	errCh := make(chan error, 1)
	go func() {
		if err := server.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case sig := <-stop:
		log.Printf("Received signal %s, shutting down", sig)
	}

	if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout); err != nil {
		log.Printf("Shutdown finished with error: %v", err)
	}
}
