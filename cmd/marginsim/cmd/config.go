package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginsim/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for simulations.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  marginsim config init -o hbar.yaml
  marginsim config validate -f hbar.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings. The format
follows the extension: .json writes JSON, anything else YAML.

Example:
  marginsim config init -o hbar.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  marginsim config validate -f hbar.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "marginsim.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(w, "\nEdit the file and run with:")
	fmt.Fprintf(w, "  marginsim run -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(w, "  Pair: %s\n", cfg.Pair)
	fmt.Fprintf(w, "  Account: %.2f invested, margin %gx, interest %.2f%%/yr, fee %.3f%%, slippage %.3f%%\n",
		cfg.Account.Investment, cfg.Account.Margin, cfg.Account.AnnualInterestPct,
		cfg.Account.FeePct, cfg.Account.SlippagePct)
	fmt.Fprintf(w, "  Costs: fees=%t slippage=%t interest=%t (fees from %s)\n",
		cfg.Costs.Fees, cfg.Costs.Slippage, cfg.Costs.Interest, cfg.SimOptions().FeeFunding)
	fmt.Fprintf(w, "  Generator: %s (hysteresis %t)\n", cfg.Signals.Generator, cfg.Hysteresis.Enabled)
	journalType := cfg.Journal.Type
	if journalType == "" {
		journalType = "off"
	}
	fmt.Fprintf(w, "  Journal: %s\n", journalType)
	return nil
}
