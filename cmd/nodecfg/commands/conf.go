package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nodecfg/nodecfg/conf"
)

// ConfCmd groups configuration subcommands
var ConfCmd = &cobra.Command{
	Use:   "conf",
	Short: "Manage nodecfg configuration",
	Long: `Display and validate nodecfg configuration.

Configuration sources (in order of precedence):
1. Environment variables (NODECFG_* prefix)
2. Project config (./nodecfg.toml, searched upward)
3. User config (~/.nodecfg/config.toml)
4. Default values

Examples:
  nodecfg conf show              # Show current configuration
  nodecfg conf get server.port   # Get a specific value
  nodecfg conf validate          # Validate current configuration`,
}

var confShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfShow,
}

var confGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value using dot notation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfGet,
}

var confValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runConfValidate,
}

func init() {
	ConfCmd.AddCommand(confShowCmd)
	ConfCmd.AddCommand(confGetCmd)
	ConfCmd.AddCommand(confValidateCmd)
}

func runConfShow(cmd *cobra.Command, args []string) error {
	cfg, err := conf.Load()
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if path := conf.ProjectConfigPath(); path != "" {
		pterm.Info.Printf("Project config: %s\n", path)
	}
	return nil
}

func runConfGet(cmd *cobra.Command, args []string) error {
	value := conf.GetViper().Get(args[0])
	if value == nil {
		return fmt.Errorf("no configuration value for %q", args[0])
	}
	fmt.Println(value)
	return nil
}

func runConfValidate(cmd *cobra.Command, args []string) error {
	cfg, err := conf.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		pterm.Error.Printf("Configuration invalid: %v\n", err)
		return err
	}
	pterm.Success.Println("Configuration valid")
	return nil
}
