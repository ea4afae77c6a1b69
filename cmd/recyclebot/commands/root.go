// Package commands defines all Cobra CLI commands for the recyclebot binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/b-franke/recyclebot/internal/audit"
	"github.com/b-franke/recyclebot/internal/config"
	"github.com/b-franke/recyclebot/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "recyclebot",
		Short: "Recyclebot — semantic recycling and disposal advice",
		Long: `Recyclebot answers "where does this go?" questions about household waste.

A fixed German knowledge base of disposal rules is embedded into a Qdrant
vector collection; queries are answered by nearest-neighbour search over
those embeddings with a confidence threshold.

The embedding backend is selected via the EMBEDDING_PROVIDER environment
variable or a YAML config file (~/.recyclebot/config.yaml).
See 'recyclebot --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.recyclebot/config.yaml)")

	root.AddCommand(
		NewIngestCmd(),
		NewAskCmd(),
		NewChatCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}
