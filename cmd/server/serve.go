package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/floor-layout/backend/internal/api"
	"github.com/floor-layout/backend/internal/auth"
	"github.com/floor-layout/backend/internal/config"
	"github.com/floor-layout/backend/internal/provider"
	"github.com/floor-layout/backend/internal/store"
	"github.com/floor-layout/backend/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

var seedIfEmpty bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		applyLogLevel(cfg.Advanced.LogLevel)
		if err := cfg.EnsureDirectories(); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&seedIfEmpty, "seed-if-empty", true, "load the demo dataset when the store has no layouts or users")
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if seedIfEmpty {
		empty, err := isEmpty(ctx, s)
		if err != nil {
			return fmt.Errorf("failed to inspect store: %w", err)
		}
		if empty {
			if _, err := store.Seed(ctx, s); err != nil {
				return err
			}
			logger.Info("empty store seeded with demo data")
		}
	}

	p, closeProvider, err := provider.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize data provider: %w", err)
	}
	defer closeProvider()

	issuer, err := auth.NewIssuer(cfg.Auth.Secret, cfg.TokenTTL())
	if err != nil {
		return err
	}

	var metrics *api.Metrics
	if cfg.Advanced.EnableMetrics {
		metrics = api.NewMetrics()
	}

	h := api.NewHandlers(&api.Dependencies{
		Store:    s,
		Provider: p,
		Issuer:   issuer,
		Metrics:  metrics,
		Events:   api.NewEventHub(logger.WithPrefix("ws")),
		Logger:   logger,
		Mode:     cfg.Mode,
		Version:  Version,
	})

	e := newEcho(cfg)
	api.SetupMiddleware(e, h, cfg.Mode != config.ModeProd)
	api.RegisterRoutes(e, h)

	// Register the built frontend last so API routes take precedence
	if dir := cfg.Server.FrontendDir; dir != "" {
		frontend := os.DirFS(dir)
		if web.HasIndex(frontend) {
			web.RegisterStaticRoutes(e, frontend)
			logger.Info("serving frontend", "dir", dir)
		} else {
			logger.Warn("frontend directory has no index.html, skipping", "dir", dir)
		}
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, p.Mode())

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(srv)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newEcho builds the echo instance with the shared middleware chain.
func newEcho(cfg *config.AppConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	httpLog := logger.WithPrefix("http")
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/health" || path == "/metrics"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				httpLog.Warn("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "err", v.Error)
				return nil
			}
			httpLog.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api/ws/")
		},
		ErrorMessage: "Request timeout - data source took too long",
	}))

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	return e
}

func printBanner(cfg *config.AppConfig, dataMode string) {
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Floor Layout Server                             ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", cfg.Mode)
	fmt.Printf("║  Data:       %-45s║\n", dataMode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Store:     %-46s║\n", cfg.Database.Driver)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
