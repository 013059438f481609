package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/like-mike/relai-chat/helpers/middleware"
	"github.com/like-mike/relai-chat/provider"
	"github.com/like-mike/relai-chat/routes"
	"github.com/like-mike/relai-chat/shared/config"
	"github.com/like-mike/relai-chat/shared/logging"
	"github.com/like-mike/relai-chat/shared/tracer"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file (default $RELAI_CONFIG)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Init(cfg.LogFile)

	shutdownTracer, err := tracer.InitTracer(context.Background(), cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to initialise tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	var completions provider.CompletionProvider
	if cfg.RelayEnabled() {
		completions, err = provider.NewProviderFromConfig(cfg)
		if err != nil {
			log.Fatalf("Failed to create provider: %v", err)
		}
	} else {
		slog.Warn("OPENAI_API_KEY not set. Add it as an environment variable before deploying.")
	}

	app := setupApp(cfg, completions)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down")
		if err := app.ShutdownWithTimeout(cfg.Timeout + 5*time.Second); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "model", cfg.Model, "public_dir", cfg.PublicDir)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

// setupApp builds the fiber application with middleware and routes. It is
// split from main so tests can drive the full stack through app.Test.
func setupApp(cfg *config.Config, completions provider.CompletionProvider) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
	}))
	app.Use(middleware.RequestID())
	// Add OpenTelemetry tracing middleware
	app.Use(otelfiber.Middleware())
	// Add Prometheus metrics middleware
	app.Use(routes.PrometheusMiddleware())
	// Add HTTP logging middleware
	app.Use(middleware.CustomLogger())

	// Expose Prometheus metrics at /metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	routes.RegisterRoutes(app, cfg, completions)

	return app
}
