// Package statusserver exposes a running experiment over HTTP: the status
// snapshot as JSON, a websocket event stream, and Prometheus metrics.
package statusserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ytaudit/internal/state"
)

// Config captures the settings for serving experiment status.
type Config struct {
	Addr    string
	Tracker *state.Tracker
	// Hub carries the live event stream. Optional; without it /events is 404.
	Hub *Hub
}

// NewHandler builds the HTTP routes.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Tracker == nil {
		return nil, errors.New("statusserver: tracker is required")
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(cfg.Tracker.Snapshot())
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	if cfg.Hub != nil {
		mux.Handle("/events", cfg.Hub)
	}
	return mux, nil
}

// Serve starts the status server and shuts it down when the context ends.
func Serve(ctx context.Context, cfg Config) error {
	if ctx == nil {
		return errors.New("statusserver: context is nil")
	}
	if cfg.Addr == "" {
		return errors.New("statusserver: addr is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		if cfg.Hub != nil {
			cfg.Hub.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) || err == nil {
			return nil
		}
		return err
	}
}
