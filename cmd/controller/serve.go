package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/kiotasks/jeep/internal/api"
	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/hostapi"
	"github.com/kiotasks/jeep/internal/store"
)

const shutdownTimeout = 10 * time.Second

// #region serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve task sessions over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	apiCfg := api.Config{
		MaxSessions: cfg.Sessions.Max,
		GateConfig:  cfg.GateConfig(),
		Goals:       func(level int) eval.EvalConfig { return cfg.EvalConfig(level) },
		Logger:      logger,
	}
	if cfg.HostAddr != "" {
		client, err := hostapi.NewClient(cfg.HostAddr)
		if err != nil {
			return fmt.Errorf("connect to host at %s: %w", cfg.HostAddr, err)
		}
		defer client.Close()
		apiCfg.Reporter = client
		apiCfg.Resolver = client
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(st, apiCfg).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "db", cfg.DBPath, "host", cfg.HostAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// #endregion serve

// #region host
var (
	hostListen string

	hostCmd = &cobra.Command{
		Use:   "host",
		Short: "Run a local task host that records submitted results",
		RunE:  runHost,
	}
)

func init() {
	hostCmd.Flags().StringVar(&hostListen, "listen", "localhost:50051", "gRPC listen address")
}

func runHost(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", hostListen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", hostListen, err)
	}

	recorder := hostapi.NewRecorder(cfg.ResourceBase, logger)
	srv := grpc.NewServer()
	hostapi.RegisterTaskHostServer(srv, recorder)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("task host listening", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		srv.GracefulStop()
		if best, ok := recorder.Best(); ok {
			logger.Info("best result", "far_with_return", best.FarWithReturn, "far", best.Far,
				"total_fuel", best.TotalFuel, "steps", best.Steps, "submits", len(recorder.Results()))
		}
		return nil
	})
	return g.Wait()
}

// #endregion host
