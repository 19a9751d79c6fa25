// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify runs the chunk-and-classify stage: it unpacks each
// extraction archive, chunks its text, asks the classification service for
// taxonomy codes per chunk, and writes one CSV report per archive.
package classify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/pdfcoder/internal/archive"
	"github.com/pdiddy/pdfcoder/internal/chunk"
	"github.com/pdiddy/pdfcoder/internal/ledger"
	"github.com/pdiddy/pdfcoder/internal/report"
	"github.com/pdiddy/pdfcoder/pkg/types"
)

// Backend abstracts the classification service so tests can supply a mock.
type Backend interface {
	// Classify returns the raw response for one chunk of text.
	Classify(ctx context.Context, text string) (string, error)
}

// BatchSummary holds counts from a classification run.
type BatchSummary struct {
	Classified int  `yaml:"classified"`
	Skipped    int  `yaml:"skipped"`
	Failed     int  `yaml:"failed"`
	Stopped    bool `yaml:"stopped"`
	Chunks     int  `yaml:"chunks"`
	Relevant   int  `yaml:"relevant"`
	Dropped    int  `yaml:"dropped"`
}

// Total returns the number of archives seen before the run ended.
func (s BatchSummary) Total() int {
	return s.Classified + s.Skipped + s.Failed
}

// HasFailures reports whether any archive failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// DocumentStats counts chunk outcomes within one archive.
type DocumentStats struct {
	Chunks   int
	Relevant int
	Dropped  int
}

// Pipeline holds the collaborators of one classification run. Backend and
// Tokenizer are required; a nil Limiter disables pacing.
type Pipeline struct {
	Backend   Backend
	Tokenizer chunk.Tokenizer
	Limiter   *rate.Limiter
	Logger    *slog.Logger
	Out       io.Writer
}

// NewLimiter returns a limiter allowing requestsPerMinute calls, or nil when
// requestsPerMinute is not positive.
func NewLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}

func (p *Pipeline) out() io.Writer {
	if p.Out == nil {
		return io.Discard
	}
	return p.Out
}

// Run classifies every archive in cfg.ArchiveDir that has no report in
// cfg.ReportDir yet. When cfg.MaxDocuments is set the run stops after that
// many archives were attempted.
func (p *Pipeline) Run(ctx context.Context, cfg types.ClassificationConfig) (BatchSummary, error) {
	w := p.out()

	maxTokens := cfg.MaxChunkTokens
	if maxTokens <= 0 {
		maxTokens = types.DefaultMaxChunkTokens
	}

	if err := os.MkdirAll(cfg.ReportDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating report directory: %w", err)
	}

	done, err := ledger.Scan(cfg.ReportDir, report.ReportExt, report.StemFromReport)
	if err != nil {
		return BatchSummary{}, err
	}
	fmt.Fprintf(w, "found %d existing report(s) in %s\n", done.Len(), cfg.ReportDir)

	entries, err := os.ReadDir(cfg.ArchiveDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading archive directory %s: %w", cfg.ArchiveDir, err)
	}

	var summary BatchSummary
	attempted := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), types.ArchiveExt) {
			continue
		}

		stem := types.ArchiveStem(entry.Name())
		if done.Has(stem) {
			fmt.Fprintf(w, "skipped %s (report exists)\n", stem)
			summary.Skipped++
			continue
		}

		if cfg.MaxDocuments > 0 && attempted >= cfg.MaxDocuments {
			fmt.Fprintf(w, "stopping: reached limit of %d documents\n", cfg.MaxDocuments)
			summary.Stopped = true
			break
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		attempted++

		fmt.Fprintf(w, "classifying %s\n", stem)
		archivePath := filepath.Join(cfg.ArchiveDir, entry.Name())

		results, stats, err := p.ClassifyArchive(ctx, archivePath, stem, maxTokens)
		summary.Chunks += stats.Chunks
		summary.Relevant += stats.Relevant
		summary.Dropped += stats.Dropped
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			fmt.Fprintf(w, "failed  %s: %v\n", stem, err)
			summary.Failed++
			continue
		}

		reportPath := filepath.Join(cfg.ReportDir, report.ReportName(stem))
		if err := report.WriteResults(reportPath, results); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", stem, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "classified %s (%d of %d chunks relevant)\n", stem, len(results), stats.Chunks)
		summary.Classified++
	}

	fmt.Fprintf(w, "\nBatch summary: %d classified, %d skipped, %d failed (total: %d)\n",
		summary.Classified, summary.Skipped, summary.Failed, summary.Total())
	return summary, nil
}

// ClassifyArchive chunks one archive and classifies each chunk in order.
// Chunks whose content cannot be decoded are logged and dropped. A failed
// service call fails the whole archive so that no report is written and the
// next run submits it again.
func (p *Pipeline) ClassifyArchive(ctx context.Context, path, stem string, maxTokens int) ([]types.ClassificationResult, DocumentStats, error) {
	var stats DocumentStats
	log := p.logger().With("file", stem)
	w := p.out()

	payloads, err := archive.ReadPayloads(path)
	if err != nil {
		return nil, stats, err
	}

	records := chunk.FilterRecords(payloads)
	chunks, err := chunk.Split(records, stem, p.Tokenizer, maxTokens)
	if err != nil {
		return nil, stats, err
	}
	stats.Chunks = len(chunks)
	log.Debug("chunked archive", "records", len(records), "chunks", len(chunks))

	var results []types.ClassificationResult
	for _, c := range chunks {
		rec, err := chunk.UnmarshalRecord(c.Content)
		if err != nil {
			log.Warn("dropping malformed chunk", "id", c.ID, "error", err)
			stats.Dropped++
			continue
		}

		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return nil, stats, err
			}
		}

		resp, err := p.Backend.Classify(ctx, rec.Text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, ctx.Err()
			}
			log.Error("classification failed", "id", c.ID, "page", c.Page, "error", err)
			return nil, stats, fmt.Errorf("classifying chunk %s: %w", c.ID, err)
		}
		log.Debug("classification response", "id", c.ID, "response", resp)

		codes, relevant := ParseResponse(resp)
		if !relevant {
			fmt.Fprintf(w, "  chunk %s not relevant\n", c.ID)
			continue
		}

		fmt.Fprintf(w, "  chunk %s page %d: %s\n", c.ID, c.Page, codes)
		stats.Relevant++
		results = append(results, types.ClassificationResult{
			File:  stem,
			Codes: codes,
			Page:  c.Page,
			ID:    c.ID,
			Text:  rec.Text,
		})
	}
	return results, stats, nil
}
