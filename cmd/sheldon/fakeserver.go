package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sheldon-client/infrastructure/config"
	"sheldon-client/interfaces/http/fakeserver"
	"sheldon-client/pkg/observability"
)

// seedFile declares the schema the fake backend starts with
type seedFile struct {
	Nodes       map[string][]string `json:"nodes"`
	Connections map[string]struct {
		Sources []string `json:"sources"`
		Targets []string `json:"targets"`
	} `json:"connections"`
}

func newFakeServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fake-server",
		Short: "Run an in-memory Sheldon backend",
		Long: `Run an in-memory backend that speaks the Sheldon protocol, for local
experiments and integration tests. Nothing is persisted.

Example:
  sheldon fake-server --addr :2311 --seed schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			seedPath, _ := cmd.Flags().GetString("seed")

			logger, err := observability.NewLogger(config.Logging{
				Enabled: true,
				Level:   "info",
				Format:  "console",
				Output:  "stderr",
			})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			server := fakeserver.New(logger)
			if seedPath != "" {
				if err := seed(server.Store(), seedPath); err != nil {
					return err
				}
			}

			srv := &http.Server{
				Addr:         addr,
				Handler:      server.Handler(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting fake sheldon backend", zap.String("address", addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("fake backend failed: %w", err)
			case <-sigChan:
			}

			logger.Info("Shutting down fake sheldon backend...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().String("addr", ":2311", "Listen address")
	cmd.Flags().String("seed", "", "JSON file declaring node and connection types")
	return cmd
}

func seed(store *fakeserver.Store, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	var doc seedFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}
	for nodeType, properties := range doc.Nodes {
		store.DeclareNodeType(nodeType, properties...)
	}
	for connectionType, decl := range doc.Connections {
		store.DeclareConnectionType(connectionType, decl.Sources, decl.Targets)
	}
	return nil
}
