package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serves the REST API on the configured address. The same runtime
that backs the chat REPL handles requests, so API clients and the CLI
share one workspace and one conversation store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, 127.0.0.1:7420)")
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	addr := serveAddr
	if addr == "" {
		addr = rt.Config.API.Addr
	}

	handler := api.NewRouter(api.Deps{
		Chat:     rt.Chat,
		Journey:  rt.Journey,
		Engine:   rt.Engine,
		Plans:    rt.Plans,
		Registry: rt.Registry,
		Store:    rt.Store,
		Version:  rt.Config.Version,
		Logger:   logger,
	})
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Println(okStyle.Render(fmt.Sprintf("Pointer API listening on http://%s", addr)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Println(mutedStyle.Render("shutting down..."))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
