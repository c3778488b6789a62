package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/samansalari/seenovate-appforge/internal/config"
	httpapi "github.com/samansalari/seenovate-appforge/internal/http"
	"github.com/samansalari/seenovate-appforge/internal/observability"
	"github.com/samansalari/seenovate-appforge/internal/repo"
	"github.com/samansalari/seenovate-appforge/internal/search"
	"github.com/samansalari/seenovate-appforge/internal/sysutil"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "appforge",
		Short:   "appforge is the HTTP service behind the app-builder workspace",
		Version: version,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			sysutil.SetLogLevel(cfg.LogLevel)
			sysutil.SetOutput(cfg.LogPretty, cfg.LogFilePath, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays)

			db, err := repo.OpenSQLite(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if err := repo.AutoMigrate(db); err != nil {
				return fmt.Errorf("automigrate: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
			if err != nil {
				return fmt.Errorf("setup otel: %w", err)
			}
			defer shutdownOTel(ctx)

			gin.SetMode(cfg.GinMode)
			r := gin.New()
			// The App/Chat search paths build their own short-lived relevance
			// index per query; idx here only satisfies RegisterRoutes' signature.
			httpapi.RegisterRoutes(r, db, search.NewIndexFromDocs(nil), cfg)

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           r,
				ReadTimeout:       cfg.ReadTimeout,
				ReadHeaderTimeout: cfg.ReadHeaderTimeout,
				WriteTimeout:      cfg.WriteTimeout,
				IdleTimeout:       cfg.IdleTimeout,
				MaxHeaderBytes:    cfg.MaxHeaderBytes,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				log.Info().Msg("shutting down")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("graceful shutdown failed")
				}
			}()

			log.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			db, err := repo.OpenSQLite(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if err := repo.AutoMigrate(db); err != nil {
				return fmt.Errorf("automigrate: %w", err)
			}
			fmt.Println("migration complete")
			return nil
		},
	}
}
