package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/chainsight/chainsight/internal/config"
	"github.com/chainsight/chainsight/internal/executor"
	"github.com/chainsight/chainsight/internal/handler"
	"github.com/chainsight/chainsight/internal/middleware"
	"github.com/chainsight/chainsight/internal/nlu"
	"github.com/chainsight/chainsight/internal/pipeline"
	"github.com/chainsight/chainsight/internal/schema"
	"github.com/chainsight/chainsight/internal/security"
	"github.com/chainsight/chainsight/internal/session"
	"github.com/chainsight/chainsight/internal/sqlgen"
	"github.com/chainsight/chainsight/internal/store"
)

func (s *Server) setupRoutes() (http.Handler, error) {
	cfg := s.cfg

	// ─── Data store ─────────────────────────────────────────────────────────────
	var st *store.PostgresStore
	if cfg.DatabaseURL != "" {
		var err error
		st, err = store.NewPostgres(cfg.DatabaseURL, cfg.StatementTimeout)
		if err != nil {
			log.Warn().Err(err).Msg("data store unavailable")
			st = nil
		}
	} else {
		log.Warn().Msg("DATABASE_URL not set - data store disabled")
	}
	if st != nil {
		s.store = st
	}

	// ─── Schema registry ────────────────────────────────────────────────────────
	registry := schema.Default()
	if st != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		chains, err := st.ListChainIDs(ctx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("chain catalogue load failed, using built-in chain list")
		} else if len(chains) > 0 {
			registry = schema.Load(chains)
		}
	}

	// ─── Security ───────────────────────────────────────────────────────────────
	inputVal := security.NewInputValidator(cfg.MaxQuestionLength)
	sqlVal := security.NewSQLValidator(registry, cfg.MaxRows, cfg.MaxJoins, cfg.MaxSubqueryDepth)
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)

	// ─── Generation ─────────────────────────────────────────────────────────────
	var model sqlgen.SQLModel
	if cfg.AnthropicAPIKey != "" {
		model = sqlgen.NewAnthropicModel(cfg.AnthropicAPIKey, cfg.Model, cfg.AnthropicBaseURL)
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - model generation path disabled")
	}
	generator := sqlgen.NewGenerator(registry, model, config.DefaultModelConfidence)

	// ─── Pipeline ───────────────────────────────────────────────────────────────
	var storeIface store.Store
	if st != nil {
		storeIface = st
	}
	exec := executor.New(storeIface, cfg.StatementTimeout, cfg.CacheTTL, cfg.CacheMaxEntries)
	s.sessions = session.NewManager(cfg.SessionMaxTurns)

	pipe := pipeline.New(pipeline.Config{
		Classifier:   nlu.NewClassifier(cfg.MinIntentConfidence),
		Extractor:    nlu.NewExtractor(registry),
		Sessions:     s.sessions,
		Generator:    generator,
		Validator:    sqlVal,
		Executor:     exec,
		Audit:        auditLogger,
		ModelTimeout: cfg.ModelTimeout,
	})

	log.Info().
		Bool("datastore_enabled", st != nil).
		Bool("model_enabled", model != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Int("known_chains", len(registry.KnownChains())).
		Msg("service configuration")

	if st == nil {
		log.Warn().Msg("WARNING: no data store configured - question execution will fail")
	}
	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Handlers ───────────────────────────────────────────────────────────────
	var pinger handler.Pinger
	if st != nil {
		pinger = st
	}
	healthH := handler.NewHealthHandler(pinger, model != nil)
	askH := handler.NewAskHandler(pipe, inputVal)
	chainsH := handler.NewChainsHandler(registry, sqlVal, exec)
	statsH := handler.NewStatsHandler(pipe, s.sessions, exec)

	// ─── Router ─────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute),
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/ask", askH.Ask)
			r.Get("/chains", chainsH.List)
			r.Get("/chains/{chain_id}/history", chainsH.History)
			r.Get("/stats", statsH.Stats)
		})
	})

	return r, nil
}
