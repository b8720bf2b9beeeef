package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jmcleod/waypoint/api"
	"github.com/jmcleod/waypoint/config"
	"github.com/jmcleod/waypoint/navcache"
	"github.com/jmcleod/waypoint/navigator"
	"github.com/jmcleod/waypoint/routes"
	"github.com/jmcleod/waypoint/session"
	bboltstorage "github.com/jmcleod/waypoint/storage/bbolt"
	"github.com/jmcleod/waypoint/telemetry"
)

var (
	port    int
	dataDir string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the navigation orchestration server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		store, err := bboltstorage.NewStoreFromFile(dataDir+"/waypoint.db", nil)
		if err != nil {
			return fmt.Errorf("failed to open navigation store: %w", err)
		}
		defer store.Close()

		cache := navcache.New(store,
			navcache.WithTTL(cfg.Cache.TTL),
			navcache.WithMaxSize(cfg.Cache.MaxSize),
			navcache.WithLogger(logger),
		)
		cache.Preload()

		sessions := session.NewHandler(routes.DefaultValidator{}, cfg.Session.RoutePermissions,
			session.WithTimeout(cfg.Session.Timeout),
			session.WithMaxSessionsPerUser(cfg.Session.MaxPerUser),
			session.WithRateLimit(cfg.Session.RateLimitMax, cfg.Session.RateLimitWindow),
			session.WithLogger(logger),
		)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		analytics := telemetry.NewPrometheusAnalytics(reg)

		ctrl := &localController{logger: logger, current: cfg.Navigation.HomeRoute}

		manager := navigator.NewManager(navigator.NewState(cfg.Navigation.HomeRoute), cache,
			navigator.WithController(ctrl),
			navigator.WithSessions(sessions),
			navigator.WithFeedback(telemetry.NewLogFeedback(logger)),
			navigator.WithAnalytics(analytics),
			navigator.WithPreloader(preloaderFunc(func(hints []string) {
				logger.Debug("preload hints", "routes", hints)
			})),
			navigator.WithTimeout(cfg.Navigation.Timeout),
			navigator.WithHomeRoute(cfg.Navigation.HomeRoute),
			navigator.WithLogger(logger),
		)

		a := api.New(manager, sessions, cache, logger)

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/api/v1", a.Router())
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

		stop := make(chan struct{})
		defer close(stop)
		sessions.StartSweeper(time.Minute, stop)
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					cache.SweepOld()
				}
			}
		}()

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Starting server on port %d (data: %s)...\n", port, dataDir)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

// preloaderFunc adapts a function to the manager's preloader hook.
type preloaderFunc func([]string)

func (f preloaderFunc) Preload(routes []string) { f(routes) }

// localController is the in-process navigation target used by the server.
// It tracks the visible screen and keeps its own pop stack so back
// navigation works without a platform UI attached.
type localController struct {
	logger *slog.Logger

	mu      sync.Mutex
	current string
	stack   []string
}

func (c *localController) Navigate(ctx context.Context, route string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stack = append(c.stack, c.current)
	c.current = route
	c.logger.Info("screen changed", "route", route)
	return nil
}

func (c *localController) Pop(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stack) == 0 {
		return false, nil
	}
	c.current = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.logger.Info("screen popped", "route", c.current)
	return true, nil
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for persistent data")
}
