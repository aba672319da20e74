package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chainsight/chainsight/internal/config"
	"github.com/chainsight/chainsight/internal/session"
	"github.com/chainsight/chainsight/internal/store"
)

type Server struct {
	cfg      *config.Config
	http     *http.Server
	store    store.Store // held for graceful close
	sessions *session.Manager
}

func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	router, err := s.setupRoutes()
	if err != nil {
		return nil, fmt.Errorf("setup routes: %w", err)
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) Run(ctx context.Context) error {
	go s.sessionJanitor(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)

		if s.store != nil {
			if closeErr := s.store.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("error closing data store")
			} else {
				log.Info().Msg("data store closed")
			}
		}

		return err
	case err := <-errCh:
		return err
	}
}

// sessionJanitor evicts idle sessions on a fixed cadence so abandoned
// conversations don't accumulate.
func (s *Server) sessionJanitor(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.EvictIdle(s.cfg.SessionIdle); n > 0 {
				log.Debug().Int("evicted", n).Msg("idle sessions evicted")
			}
		}
	}
}
