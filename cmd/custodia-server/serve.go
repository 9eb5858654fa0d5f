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

	"github.com/spf13/cobra"

	"github.com/custodialabs/custodia/server/internal/config"
	"github.com/custodialabs/custodia/server/internal/db"
	"github.com/custodialabs/custodia/server/internal/httpapi"
	"github.com/custodialabs/custodia/server/internal/ledger/service"
	"github.com/custodialabs/custodia/server/internal/ledger/store"
	"github.com/custodialabs/custodia/server/internal/ledger/store/memory"
	"github.com/custodialabs/custodia/server/internal/ledger/store/sqlite"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("CUSTODIA_CONFIG"), "path to YAML config file")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := log.New(os.Stdout, "custodia-server ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recordStore store.Store
	switch cfg.Backend {
	case "sqlite":
		conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
		if err != nil {
			return err
		}
		defer conn.Close()

		writer := db.NewWorker(conn)
		defer writer.Close()

		recordStore = sqlite.NewRecordStore(conn, writer)
		logger.Printf("backend=sqlite path=%s", cfg.DBPath)
	case "memory":
		recordStore = memory.New()
		logger.Printf("backend=memory (state is not persisted)")
	}

	gateway := service.NewGateway(recordStore)

	if cfg.Env == "dev" && cfg.DevAdmin != "" {
		if err := seedDevAdmin(ctx, gateway, cfg.DevAdmin, logger); err != nil {
			return err
		}
	}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:  logger,
		Addr:    cfg.HTTPAddr,
		Gateway: gateway,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seedDevAdmin self-initializes the configured identity as an admin so a
// fresh dev environment is writable without a manual bootstrap call.
func seedDevAdmin(ctx context.Context, gateway *service.Gateway, devAdmin string, logger *log.Logger) error {
	id, err := types.ParseIdentity(devAdmin)
	if err != nil {
		return fmt.Errorf("dev_admin: %w", err)
	}

	_, err = gateway.Access.InitializeAdmin(ctx, id)
	switch {
	case err == nil:
		logger.Printf("seeded dev admin %s", id)
	case errors.Is(err, service.ErrAlreadyExists):
		// Already bootstrapped on a previous run.
	default:
		return err
	}
	return nil
}
