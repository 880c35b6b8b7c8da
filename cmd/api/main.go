package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/acesoft/ace-crm-site/cmd/mainconfig"
	"github.com/acesoft/ace-crm-site/internal/api/router"
	"github.com/acesoft/ace-crm-site/internal/app/bootstrap"
	appconfig "github.com/acesoft/ace-crm-site/internal/config"
	"github.com/acesoft/ace-crm-site/internal/emailcheck"
	"github.com/acesoft/ace-crm-site/internal/http/handlers"
	httpmiddleware "github.com/acesoft/ace-crm-site/internal/http/middleware"
	"github.com/acesoft/ace-crm-site/internal/i18n"
	"github.com/acesoft/ace-crm-site/internal/leads"
	"github.com/acesoft/ace-crm-site/internal/notify"
	"github.com/acesoft/ace-crm-site/internal/observability/metrics"
	"github.com/acesoft/ace-crm-site/internal/phone"
	"github.com/acesoft/ace-crm-site/internal/popup"
	"github.com/acesoft/ace-crm-site/internal/session"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting ace-crm-site API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	app, err := buildApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// setupMetrics registers the site collectors on a fresh registry and returns
// the /metrics handler.
func setupMetrics() (http.Handler, *metrics.LeadMetrics, *metrics.PopupMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewLeadMetrics(reg), metrics.NewPopupMetrics(reg)
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	a := &app{}
	metricsHandler, leadMetrics, popupMetrics := setupMetrics()

	catalog, err := i18n.Load(cfg.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}

	var sesClient notify.SESAPI
	if cfg.EmailProvider == bootstrap.EmailProviderSES {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		sesClient = mainconfig.NewSESClient(awsCfg, cfg)
	}
	sender, err := bootstrap.BuildEmailSender(cfg, sesClient, logger)
	if err != nil {
		return nil, err
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	checks := map[string]handlers.Pinger{}
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		checks["redis"] = redisPinger(redisClient)
	}
	sessions := bootstrap.BuildSessionStore(redisClient, cfg, logger)
	if mem, ok := sessions.(*session.MemoryStore); ok {
		a.closers = append(a.closers, mem.Stop)
	}

	natsConn := bootstrap.ConnectNATS(cfg, "ace-crm-site-api", logger)
	if natsConn != nil {
		a.closers = append(a.closers, natsConn.Close)
		checks["nats"] = natsPinger(natsConn)
	}
	notifier, provider, reason := bootstrap.BuildNotifier(cfg, natsConn, logger)
	if reason != "" {
		logger.Warn("whatsapp notifier fallback", "provider", provider, "reason", reason)
	} else {
		logger.Info("whatsapp notifier configured", "provider", provider)
	}

	upstream := bootstrap.BuildEmailUpstream(cfg, logger)
	if upstream == nil {
		logger.Warn("EMAIL_VALIDATION_API_KEY not set; email checks are syntax only")
	}
	deps := leads.Deps{
		Verifier: bootstrap.BuildEmailVerifier(cfg, upstream, logger),
		Phones:   phone.NewValidator(cfg.DefaultPhoneRegion),
		Sender:   sender,
		Notifier: notifier,
		Sessions: sessions,
		Metrics:  leadMetrics,
		Logger:   logger,
	}
	site, err := bootstrap.SiteConfig(cfg)
	if err != nil {
		return nil, err
	}
	var workflows []*leads.Workflow
	for _, form := range leads.DefaultForms() {
		wf, err := leads.NewWorkflow(form, site, deps, leads.WithNotificationTimeout(cfg.NotificationTimeout))
		if err != nil {
			return nil, fmt.Errorf("build %s workflow: %w", form.Name, err)
		}
		// Closers run in reverse, so pending notifications drain before
		// the NATS and redis connections close.
		a.closers = append(a.closers, wf.Wait)
		workflows = append(workflows, wf)
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.FormRateLimit, cfg.FormRateBurst)
	a.closers = append(a.closers, limiter.Stop)

	delays := popup.Delays{
		Trial:    cfg.PopupTrialDelay,
		Demo:     cfg.PopupDemoDelay,
		Callback: cfg.PopupCallbackDelay,
	}

	a.handler = router.New(&router.Config{
		Logger:        logger,
		HealthHandler: handlers.NewHealthHandler(checks, logger),
		LeadsHandler: leads.NewHandler(workflows, catalog, sessions, leads.CookieConfig{
			Name:   cfg.SessionCookie,
			Secure: cfg.Env == "production",
			MaxAge: cfg.SessionMarkerTTL,
		}, logger),
		EmailProxy:         emailcheck.NewProxyHandler(upstream, logger),
		PopupHandler:       popup.NewHandler(popup.RealClock(), delays, cfg.CORSAllowedOrigins, logger, popupMetrics),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		FormRateLimiter:    limiter,
	})
	return a, nil
}

func redisPinger(client *redis.Client) handlers.Pinger {
	return handlers.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func natsPinger(conn *nats.Conn) handlers.Pinger {
	return handlers.PingFunc(func(ctx context.Context) error {
		if !conn.IsConnected() {
			return fmt.Errorf("nats status %s", conn.Status())
		}
		return nil
	})
}
