// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfcoder/internal/chunk"
	"github.com/pdiddy/pdfcoder/internal/classify"
	"github.com/pdiddy/pdfcoder/internal/report"
	"github.com/pdiddy/pdfcoder/internal/secrets"
	"github.com/pdiddy/pdfcoder/pkg/types"
)

const classifySummaryName = "classification_summary.yaml"

var classifyCmd = &cobra.Command{
	Use:   "classify [max-documents]",
	Short: "Chunk extracted text and tag each chunk with taxonomy codes",
	Long: `Classify reads every archive in archive-dir, keeps text fragments of at
least 50 characters, splits them into chunks within the token budget, and
asks the language model which taxonomy codes apply to each chunk. One report,
report-dir/extracted_data_<country>_<file>.csv, is written per archive.

Archives that already have a report are skipped. The optional max-documents
argument stops the run after that many archives.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().String("archive-dir", "data/json", "directory of extraction archives")
	classifyCmd.Flags().String("report-dir", "output", "directory for CSV reports")
	classifyCmd.Flags().String("model", "gpt-4o", "chat model identifier")
	classifyCmd.Flags().String("base-url", "", "override the model API endpoint")
	classifyCmd.Flags().Int("max-response-tokens", 500, "maximum tokens per classification response")
	classifyCmd.Flags().Int("max-chunk-tokens", types.DefaultMaxChunkTokens, "token budget per chunk")
	classifyCmd.Flags().Int("requests-per-minute", 0, "pace model calls (0 disables pacing)")
	classifyCmd.Flags().String("encoding", chunk.DefaultEncoding, "tokenizer encoding used for chunk budgets")

	for _, name := range []string{"archive-dir", "report-dir", "model", "base-url", "max-response-tokens", "max-chunk-tokens", "requests-per-minute", "encoding"} {
		mustBind("classify."+name, classifyCmd.Flags().Lookup(name))
	}

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	maxDocs := 0
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("max-documents must be a non-negative integer, got %q", args[0])
		}
		maxDocs = n
	}

	apiKey, err := secrets.Require(loadedSecrets, secrets.OpenAIAPIKey)
	if err != nil {
		return err
	}

	cfg := types.ClassificationConfig{
		AIConfig: types.AIConfig{
			Model:             viper.GetString("classify.model"),
			APIKey:            apiKey,
			BaseURL:           viper.GetString("classify.base-url"),
			MaxResponseTokens: viper.GetInt("classify.max-response-tokens"),
			RequestsPerMinute: viper.GetInt("classify.requests-per-minute"),
		},
		ArchiveDir:     viper.GetString("classify.archive-dir"),
		ReportDir:      viper.GetString("classify.report-dir"),
		MaxChunkTokens: viper.GetInt("classify.max-chunk-tokens"),
		MaxDocuments:   maxDocs,
	}

	tx, err := classify.LoadTaxonomy()
	if err != nil {
		return err
	}
	backend, err := classify.NewOpenAIBackend(cfg.AIConfig, tx)
	if err != nil {
		return err
	}
	tok, err := chunk.NewTiktokenCounter(viper.GetString("classify.encoding"))
	if err != nil {
		return err
	}

	p := &classify.Pipeline{
		Backend:   backend,
		Tokenizer: tok,
		Limiter:   classify.NewLimiter(cfg.RequestsPerMinute),
		Logger:    logger,
		Out:       os.Stdout,
	}

	logger.Info("starting classification", "archives", cfg.ArchiveDir, "reports", cfg.ReportDir, "model", cfg.Model)
	summary, err := p.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	summaryPath := filepath.Join(cfg.ReportDir, classifySummaryName)
	if err := report.WriteSummary(summaryPath, summary); err != nil {
		logger.Warn("could not write run summary", "path", summaryPath, "error", err)
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed classification", summary.Failed)
	}
	return nil
}
