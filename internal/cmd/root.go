// Package cmd provides the CLI command structure for planwright: a single
// `run` command drives one workflow through plan/review/revise to a
// decision, with `--headless` for unattended runs and `--list-sessions`/
// `--resume` for recovering a prior one.
package cmd

import (
	"strings"

	appconfig "github.com/planwright/planwright/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "planwright",
	Short: "Event-sourced plan/review/revise workflow engine",
	Long: `planwright drives a plan, review, and revise loop between agent
processes to an approvable plan, then optionally on to implementation.
Every command against a workflow is captured as an event on an append-only
log, so a run can be interrupted and resumed from exactly where it left
off.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/planwright/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	registerRun(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	appconfig.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath("$HOME/.config/planwright")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PLANWRIGHT")
	// Replace dots with underscores for nested keys in env vars, e.g.
	// PLANWRIGHT_WORKFLOW_MAX_ITERATIONS for workflow.max_iterations.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
