// Package main is the entry point for the sentex CLI, which runs the sentence
// extraction pipeline on local PDF files without the host service.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the sentex CLI.
var rootCmd = &cobra.Command{
	Use:   "sentex",
	Short: "Split PDF pages into sentences and export them as JSON and CSV",
	Long: `sentex reads the words of every PDF page, puts them in reading order,
joins them into one text buffer per page and splits that buffer into
sentences. Results are written as a per-page JSON document and a flat CSV
table (optionally XLSX).

Settings come from flags, then SENTEX_* environment variables, then the
config file.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./sentex.yaml or ~/.config/sentex/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sentex")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sentex"))
		}
	}

	viper.SetEnvPrefix("SENTEX")
	viper.AutomaticEnv()
	_ = viper.BindEnv("anthropic_api_key", "SENTEX_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
