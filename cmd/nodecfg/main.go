package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodecfg/nodecfg/cmd/nodecfg/commands"
	"github.com/nodecfg/nodecfg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "nodecfg",
	Short: "nodecfg - Visual node-graph configuration composer",
	Long: `nodecfg - Compose nested configuration files as typed node graphs.

Class-based schema definitions become node templates; graphs of connected
nodes build into nested JSON configs, and existing configs import back into
editable graphs.

Available commands:
  schema - Inspect and validate schema definitions
  build  - Build a config document from a saved graph
  import - Import a config document into a graph
  serve  - Start the graph editor server
  conf   - Manage nodecfg configuration

Examples:
  nodecfg schema show pipeline.schema    # List parsed classes and fields
  nodecfg build graph.json -s pipeline   # Emit the nested config
  nodecfg import config.json -s pipeline # Materialize a graph
  nodecfg serve                          # Start the editor server`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.SchemaCmd)
	rootCmd.AddCommand(commands.BuildCmd)
	rootCmd.AddCommand(commands.ImportCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ConfCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
