// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdfcoder CLI. The extract
// subcommand turns a tree of PDFs into extraction archives; classify chunks
// those archives and tags each chunk with taxonomy codes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfcoder/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// logger is configured in PersistentPreRunE from --verbose.
var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// rootCmd is the base command for the pdfcoder CLI.
var rootCmd = &cobra.Command{
	Use:   "pdfcoder",
	Short: "Extract text from PDF reports and code it against a fixed taxonomy",
	Long: `pdfcoder runs a two-stage batch pipeline over a directory of PDF reports
grouped by country.

  extract   sends each PDF to the document extraction service and stores the
            returned archive; failed PDFs are moved to an error directory.
  classify  chunks the text of each archive and asks a language model which
            taxonomy codes apply, writing one CSV report per document.

Both stages skip documents whose output already exists, so an interrupted
run can simply be started again.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		s, err := secrets.Load(viper.GetString("secrets-dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", "count", len(s))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdfcoder.yaml or ~/.config/pdfcoder/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of credential files")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	mustBind("secrets-dir", rootCmd.PersistentFlags().Lookup("secrets-dir"))
	mustBind("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdfcoder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdfcoder"))
		}
	}

	viper.SetEnvPrefix("PDFCODER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
