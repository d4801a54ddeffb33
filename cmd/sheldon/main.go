package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sheldon-client/infrastructure/config"
	"sheldon-client/pkg/sheldon"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheldon",
		Short: "Command line client for the Sheldon graph backend",
		Long: `sheldon talks to a Sheldon backend over its HTTP/JSON protocol.

The backend host comes from --host, SHELDON_HOST or the config file, in
that order of precedence.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("host", "", "Backend host, e.g. http://localhost:2311")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(),
		newNodeCmd(),
		newSearchCmd(),
		newConnectCmd(),
		newConnectionsCmd(),
		newNeighboursCmd(),
		newHighscoresCmd(),
		newRecommendationsCmd(),
		newFakeServerCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return output(cmd, map[string]string{"version": version}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "sheldon version %s\n", version)
			})
		},
	}
}

// newClient builds a client from the config file and environment, with
// --host taking precedence over both
func newClient(cmd *cobra.Command) (*sheldon.Client, error) {
	path, _ := cmd.Flags().GetString("config")
	host, _ := cmd.Flags().GetString("host")

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if host != "" {
		cfg.Host = host
	}

	client, err := sheldon.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}
