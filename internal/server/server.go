package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/Oscar8918/agente-maf/config"
	"github.com/Oscar8918/agente-maf/internal/agent"
	"github.com/Oscar8918/agente-maf/internal/erp"
	"github.com/Oscar8918/agente-maf/internal/llm"
	"github.com/Oscar8918/agente-maf/internal/session"
	"github.com/Oscar8918/agente-maf/internal/store"
	"github.com/Oscar8918/agente-maf/internal/telemetry"
)

// Run wires every dependency and serves the HTTP API until the process
// exits. Top-level DI happens here; nothing below this layer reads config.
func Run(cfg *appconfig.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := telemetry.Logger("HTTP")
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	providerConfigured := cfg.LLM.APIKey != ""
	e.GET("/healthz", func(c echo.Context) error {
		if !providerConfigured {
			return c.String(http.StatusOK, "degraded: llm provider unconfigured")
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	if cfg.ERP.BaseURL == "" || cfg.ERP.FunctionKey == "" {
		return fmt.Errorf("erp backend not configured (erp.base_url/function_key)")
	}
	if !providerConfigured {
		return fmt.Errorf("llm provider not configured (llm.api_key)")
	}

	var cache agent.Cache
	if cfg.Storage.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr(),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
		}
		cache = agent.NewRedisCache(rdb, telemetry.Logger("CACHE"))
	}

	erpClient := erp.NewClient(cfg.ERP.BaseURL, cfg.ERP.FunctionKey, cfg.ERP.Timeout,
		&auditSink{store: st, logger: telemetry.Logger("STORE")},
		telemetry.Logger("ERP"))
	toolset := agent.NewERPToolset(erpClient, agent.ToolsetOptions{
		Cache:          cache,
		CacheTTL:       cfg.ERP.CatalogTTL,
		ResponseBudget: cfg.ERP.ResponseBudget,
		PageSize:       cfg.ERP.PageSize,
		MaxPages:       cfg.ERP.PageCeiling,
		Logger:         telemetry.Logger("ERP"),
	})

	provider := llm.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens, cfg.LLM.Timeout)
	sessions := session.NewManager()
	gateway := agent.NewGateway(provider, toolset, sessions, st, agent.GatewayOptions{
		MaxRounds:     cfg.LLM.MaxToolRounds,
		HistoryWindow: cfg.LLM.HistoryWindow,
		DigestCap:     cfg.LLM.DigestCap,
		Logger:        telemetry.Logger("AGENT"),
	})

	ch := &ChatHandler{Gateway: gateway, Metrics: st}
	ch.Register(e)

	cleaner := &Cleaner{
		Store:   st,
		Cron:    cfg.Retention.Cron,
		IdleTTL: cfg.Retention.IdleTTL,
		Stop:    make(chan struct{}),
		Logger:  telemetry.Logger("CLEANER"),
	}
	cleaner.Start()

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
