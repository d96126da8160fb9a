package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/riskibarqy/pitchwatch/external/apifootball"
	"github.com/riskibarqy/pitchwatch/external/bzzoiro"
	"github.com/riskibarqy/pitchwatch/internal/config"
	"github.com/riskibarqy/pitchwatch/internal/docstore"
	"github.com/riskibarqy/pitchwatch/internal/interfaces/httpapi"
	"github.com/riskibarqy/pitchwatch/internal/platform/logging"
	"github.com/riskibarqy/pitchwatch/internal/platform/resilience"
	"github.com/riskibarqy/pitchwatch/internal/usecase"
)

// NewHTTPServer wires the document store, provider clients, and every
// service behind the HTTP API. The returned cleanup releases the store
// connection and must run after the server has shut down.
func NewHTTPServer(cfg config.Config, logger *slog.Logger, zlog *logging.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if zlog == nil {
		zlog = logging.Default()
	}

	store, closeStore, err := newStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	footballClient := apifootball.NewClient(apifootball.ClientConfig{
		BaseURL:    cfg.FootballAPIBaseURL,
		Timeout:    cfg.FootballAPITimeout,
		MaxRetries: cfg.FootballAPIMaxRetries,
		Logger:     zlog,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FootballAPICircuitEnabled,
			FailureThreshold: cfg.FootballAPICircuitFailureCount,
			OpenTimeout:      cfg.FootballAPICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FootballAPICircuitHalfOpenMaxReq,
		},
	})

	var feed usecase.LiveFeed
	if cfg.BzzoiroEnabled {
		feed = bzzoiro.NewClient(bzzoiro.ClientConfig{
			BaseURL: cfg.BzzoiroBaseURL,
			APIKey:  cfg.BzzoiroAPIKey,
			Timeout: cfg.BzzoiroTimeout,
			Logger:  zlog,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.BzzoiroCircuitEnabled,
				FailureThreshold: cfg.BzzoiroCircuitFailureCount,
				OpenTimeout:      cfg.BzzoiroCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.BzzoiroCircuitHalfOpenMaxReq,
			},
		})
	}

	quotaSvc := usecase.NewQuotaService(store, cfg.FootballAPIKeys, cfg.FootballAPIDailyLimitPerKey, logger)
	reconciler := usecase.NewReconciler(nil, cfg.TeamMatchMinScore)
	syncSvc := usecase.NewMatchSyncService(store, footballClient, feed, quotaSvc, reconciler, usecase.SyncConfig{
		FreshLive:     cfg.CacheFreshLive,
		FreshIdle:     cfg.CacheFreshIdle,
		IntervalHigh:  cfg.RefreshIntervalHigh,
		IntervalMid:   cfg.RefreshIntervalMid,
		IntervalLow:   cfg.RefreshIntervalLow,
		RemainingHigh: cfg.RefreshRemainingHigh,
		RemainingMid:  cfg.RefreshRemainingMid,
	}, zlog)
	resolver := usecase.NewStatsResolver(footballClient, quotaSvc, logger)
	analysisSvc := usecase.NewAnalysisService(store, footballClient, quotaSvc, resolver, cfg.CallsPerAnalysis, logger)
	hiddenSvc := usecase.NewHiddenService(store)
	historySvc := usecase.NewHistoryService(store)
	warmSvc := usecase.NewWarmService(syncSvc, cfg.WarmWorkers, zlog)

	handler := httpapi.NewHandler(syncSvc, analysisSvc, quotaSvc, hiddenSvc, historySvc, warmSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = closeStore(context.Background())
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, closeStore, nil
}

func newStore(cfg config.Config) (docstore.Store, func(context.Context) error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		return docstore.NewMemoryStore(), func(context.Context) error { return nil }, nil
	case config.StoreDriverPostgres:
		db, err := openPostgres(cfg)
		if err != nil {
			return nil, nil, err
		}
		return docstore.NewPostgresStore(db), func(context.Context) error { return db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func openPostgres(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}
