package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/memberpay/pkg/billing"
	"github.com/dmitrymomot/memberpay/pkg/catalog"
	"github.com/dmitrymomot/memberpay/pkg/config"
	"github.com/dmitrymomot/memberpay/pkg/httpserver"
	"github.com/dmitrymomot/memberpay/pkg/httpx"
	"github.com/dmitrymomot/memberpay/pkg/logger"
	"github.com/dmitrymomot/memberpay/svc/checkout"
	"github.com/dmitrymomot/memberpay/svc/provision"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"production"`
	ServiceName string `env:"APP_NAME" envDefault:"memberpay"`

	// CatalogFile switches price catalog loading from environment variables
	// to a YAML file when set.
	CatalogFile string `env:"CATALOG_FILE"`
}

func main() {
	var (
		appCfg      appConfig
		httpCfg     httpserver.Config
		stripeCfg   billing.StripeConfig
		checkoutCfg checkout.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&stripeCfg)
	config.MustLoad(&checkoutCfg)

	log := logger.New(logger.WithEnvironment(appCfg.Environment, appCfg.ServiceName))

	provider, err := billing.NewStripeProvider(stripeCfg)
	if err != nil {
		log.Error("billing provider init failed", logger.Error(err))
		os.Exit(1)
	}

	var src catalog.Source = catalog.EnvSource{}
	if appCfg.CatalogFile != "" {
		src = catalog.FileSource{Path: appCfg.CatalogFile}
	}
	cat, err := catalog.New(src)
	if err != nil {
		log.Error("price catalog init failed", logger.Error(err))
		os.Exit(1)
	}

	checkoutSvc := checkout.NewService(cat, provider, checkoutCfg, log)
	provisionSvc := provision.NewService(cat, provider, log)

	ctx := context.Background()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", clientConfigHandler(stripeCfg.PublishableKey))
		r.Mount("/checkout-session", checkout.NewHandler(checkoutSvc, log).Handle())
		r.Mount("/webhooks", provision.NewHandler(provisionSvc, log).Handle())
	})

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

// clientConfigHandler exposes the processor credentials a browser client is
// allowed to see.
func clientConfigHandler(publishableKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if publishableKey == "" {
			httpx.Error(w, http.StatusInternalServerError, "Billing configuration is incomplete.")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"publishableKey": publishableKey})
	}
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
