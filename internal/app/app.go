package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/disaforms-backend/internal/data/db"
	"github.com/yungbote/disaforms-backend/internal/forms"
	httpx "github.com/yungbote/disaforms-backend/internal/http"
	"github.com/yungbote/disaforms-backend/internal/observability"
	"github.com/yungbote/disaforms-backend/internal/platform/envutil"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

const serviceName = "disaforms-backend"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Catalog  *forms.Catalogue
	Metrics  *observability.Metrics
	Services Services
	Server   *httpx.Server

	shutdownOTel func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg := LoadConfig(log)

	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: serviceName,
		Environment: cfg.LogMode,
		Exporter:    cfg.OtelExporter,
		Endpoint:    cfg.OtelEndpoint,
		SampleRatio: cfg.OtelSamplerRatio,
	})

	theDB, err := db.Open(cfg.DB(), log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init db: %w", err)
	}

	cat, err := forms.LoadCatalogue(log, cfg.FormSchemasYAML)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load form catalogue: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.New()
	}

	serviceset := wireServices(theDB, log, cfg, cat, metrics)

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if n, err := serviceset.Checkpoints.SeedAll(seedCtx); err != nil {
		log.Sync()
		return nil, fmt.Errorf("seed checkpoints: %w", err)
	} else if n > 0 {
		log.Info("Seeded default checkpoints", "count", n)
	}

	otelService := ""
	if cfg.OtelEnabled {
		otelService = serviceName
	}
	server := httpx.NewServer(httpx.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		ServiceName:    otelService,
		FormHandler:    serviceset.handlers.Form,
		RecordHandler:  serviceset.handlers.Record,
		SignoffHandler: serviceset.handlers.Signoff,
		ReportHandler:  serviceset.handlers.Report,
		UserHandler:    serviceset.handlers.User,
		HealthHandler:  serviceset.handlers.Health,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Catalog:      cat,
		Metrics:      metrics,
		Services:     serviceset,
		Server:       server,
		shutdownOTel: shutdownOTel,
	}, nil
}

// Start launches background collectors.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 15*time.Second)
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := net.JoinHostPort("", a.Cfg.Port)
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.shutdownOTel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownOTel(ctx); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
		cancel()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
