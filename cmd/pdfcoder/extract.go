// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfcoder/internal/convert"
	"github.com/pdiddy/pdfcoder/internal/report"
	"github.com/pdiddy/pdfcoder/internal/secrets"
	"github.com/pdiddy/pdfcoder/pkg/types"
)

const extractSummaryName = "extraction_summary.yaml"

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract text from every PDF under the input directory",
	Long: `Extract walks input-dir/<country>/<file>.pdf and submits each PDF to the
document extraction service. The returned archive is stored as
output-dir/<country>_<file>.zip. PDFs whose archive already exists are
skipped; PDFs that fail are moved to error-dir. The CSV log at log-path is
rebuilt from scratch on every run.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("input-dir", "data/pdf", "root of the <country>/<file>.pdf tree")
	extractCmd.Flags().String("output-dir", "data/json", "directory for extraction archives")
	extractCmd.Flags().String("error-dir", "data/error", "directory for PDFs that failed extraction")
	extractCmd.Flags().String("log-path", "data/extraction_log.csv", "extraction log CSV")
	extractCmd.Flags().String("base-url", "", "extraction service endpoint (default https://pdf-services.adobe.io)")
	extractCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 2m)")
	extractCmd.Flags().Duration("poll-interval", 0, "delay between job status checks (default 2s)")

	for _, name := range []string{"input-dir", "output-dir", "error-dir", "log-path", "base-url", "timeout", "poll-interval"} {
		mustBind("extract."+name, extractCmd.Flags().Lookup(name))
	}

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	clientID, err := secrets.Require(loadedSecrets, secrets.PDFServicesClientID)
	if err != nil {
		return err
	}
	clientSecret, err := secrets.Require(loadedSecrets, secrets.PDFServicesClientSecret)
	if err != nil {
		return err
	}

	svc := types.PDFServicesConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout: viper.GetDuration("extract.timeout"),
		},
		ClientID:     clientID,
		ClientSecret: clientSecret,
		BaseURL:      viper.GetString("extract.base-url"),
		PollInterval: viper.GetDuration("extract.poll-interval"),
	}
	cfg := types.ExtractionConfig{
		InputDir:  viper.GetString("extract.input-dir"),
		OutputDir: viper.GetString("extract.output-dir"),
		ErrorDir:  viper.GetString("extract.error-dir"),
		LogPath:   viper.GetString("extract.log-path"),
	}

	extractor, err := convert.NewAdobeExtractor(svc, nil)
	if err != nil {
		return err
	}

	logger.Info("starting extraction", "input", cfg.InputDir, "output", cfg.OutputDir)
	summary, _, err := convert.ConvertAll(cmd.Context(), extractor, cfg, os.Stdout)
	if err != nil {
		return err
	}

	summaryPath := filepath.Join(filepath.Dir(cfg.LogPath), extractSummaryName)
	if err := report.WriteSummary(summaryPath, summary); err != nil {
		logger.Warn("could not write run summary", "path", summaryPath, "error", err)
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed extraction", summary.Failed)
	}
	return nil
}
