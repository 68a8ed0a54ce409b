package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jmcleod/gatehouse/config"
	"github.com/jmcleod/gatehouse/gate"
	"github.com/jmcleod/gatehouse/smsapi"
	"github.com/jmcleod/gatehouse/store"
	boltstore "github.com/jmcleod/gatehouse/store/bolt"
	memorystore "github.com/jmcleod/gatehouse/store/memory"
	redisstore "github.com/jmcleod/gatehouse/store/redis"
)

var listenAddr string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the access gate server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		st, closeStore, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		verifier, err := smsapi.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
		if err != nil {
			return fmt.Errorf("building verification client: %w", err)
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		g, err := gate.New(cfg, st, verifier, gate.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("building gate: %w", err)
		}

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Mount("/", g.Router())

		server := &http.Server{
			Addr:              cfg.ListenAddr,
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
		fmt.Printf("Listening on %s (store: %s, upstream: %s)...\n",
			cfg.ListenAddr, cfg.StoreBackend, cfg.UpstreamURL)

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

// openStore builds the configured store backend and returns it with its
// cleanup function.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		st := memorystore.New()
		return st, func() { st.Close() }, nil
	case "redis":
		st, err := redisstore.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "gatehouse")
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return st, func() { st.Close() }, nil
	case "bolt":
		st, err := boltstore.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening bolt store: %w", err)
		}
		return st, func() { st.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (overrides GATE_LISTEN_ADDR)")
}
