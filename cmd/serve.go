package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"a11y_tracker/config"
	"a11y_tracker/db"
	"a11y_tracker/handlers"
	"a11y_tracker/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tracker API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("host", "0.0.0.0", "listen host")
	cmd.Flags().Int("port", 8081, "listen port")
	cmd.Flags().String("storage", config.StorageModeAuto, "storage mode (auto, memory)")
	cmd.Flags().String("db-driver", "postgres", "database driver (postgres, sqlite)")
	cmd.Flags().String("dsn", "", "database connection string")
	_ = a.v.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = a.v.BindPFlag("storage.mode", cmd.Flags().Lookup("storage"))
	_ = a.v.BindPFlag("database.driver", cmd.Flags().Lookup("db-driver"))
	_ = a.v.BindPFlag("database.dsn", cmd.Flags().Lookup("dsn"))
	return cmd
}

// openStore connects the relational store when configured. An unreachable
// database is not fatal: the server starts on the in-memory store instead.
func (a *app) openStore() (*storage.Dual, *gorm.DB) {
	log := a.log.WithComponent("storage")
	memory := storage.NewMemory(a.log)
	selector := storage.NewSelector(a.log)

	if a.cfg.Storage.Mode == config.StorageModeMemory {
		log.Infow("Using in-memory storage", "reason", "storage.mode=memory")
		return storage.NewDual(nil, memory, selector, a.log), nil
	}

	gdb, err := db.Open(a.cfg.Database)
	if err != nil {
		log.Errorw("Database unavailable, starting with in-memory storage",
			"driver", a.cfg.Database.Driver,
			"error", err,
		)
		return storage.NewDual(nil, memory, selector, a.log), nil
	}
	log.Infow("Connected to database", "driver", a.cfg.Database.Driver)
	return storage.NewDual(storage.NewRelational(gdb, a.log), memory, selector, a.log), gdb
}

func (a *app) serve(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	store, gdb := a.openStore()
	if gdb != nil {
		defer func() {
			if err := db.Close(gdb); err != nil {
				a.log.Warnw("Failed to close database", "error", err)
			}
		}()
	}

	router := handlers.NewRouter(a.cfg.Server, handlers.New(store, store, a.log), a.log)
	server := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.log.Infow("HTTP server listening",
			"address", server.Addr,
			"storage", store.Mode(),
		)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		a.log.Infow("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.Errorw("Failed to shutdown gracefully", "error", err)
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		a.log.Infow("Server shutdown complete")
	}
	return nil
}
