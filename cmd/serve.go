package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/weekplan/internal/catalog"
	"github.com/abhisek/weekplan/internal/editor"
	"github.com/abhisek/weekplan/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve plan editors over HTTP",
	Long: `Serve the JSON API. Each plan is loaded into its own editor on first
request and autosaved to the configured store. Pending edits are flushed on
shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr := cfg.Server.Addr()
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		cat, err := catalog.Default()
		if err != nil {
			return err
		}

		reg := server.NewRegistry(func(ctx context.Context, planID string) (*editor.Editor, error) {
			return openEditor(ctx, b, cat, planID, logger)
		})
		srv := server.New(reg, cat, logger)

		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

		errCh := make(chan error, 1)
		go func() {
			errCh <- httpSrv.Serve(listener)
		}()
		logger.Info("server starting", "addr", listener.Addr().String())
		PrintSuccess("Listening on http://" + listener.Addr().String())

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			logger.Info("shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		if err := reg.Close(shutdownCtx); err != nil {
			logger.Error("flush editors", "error", err)
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address host:port (default from config)")
}
