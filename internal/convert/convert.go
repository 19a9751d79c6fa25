// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs the extraction stage: it submits every PDF under the
// input tree to the document extraction service and stores each result as a
// zip archive named after the document's group and filename.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdfcoder/internal/ledger"
	"github.com/pdiddy/pdfcoder/internal/report"
	"github.com/pdiddy/pdfcoder/pkg/types"
)

// Extractor turns a PDF into an extraction archive. AdobeExtractor is the
// production implementation; tests supply fakes.
type Extractor interface {
	// Extract reads the PDF at pdfPath and returns the archive bytes.
	Extract(ctx context.Context, pdfPath string) ([]byte, error)
}

// BatchSummary holds the outcome of an extraction run.
type BatchSummary struct {
	Converted int `yaml:"converted"`
	Skipped   int `yaml:"skipped"`
	Failed    int `yaml:"failed"`
}

// Total returns the number of documents seen.
func (s BatchSummary) Total() int {
	return s.Converted + s.Skipped + s.Failed
}

// HasFailures reports whether any document failed extraction.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Discover lists documents in the two-level tree root/<group>/<name>.pdf.
// Files directly under root and non-PDF files are ignored.
func Discover(root string) ([]types.Document, error) {
	groups, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", root, err)
	}

	var docs []types.Document
	for _, g := range groups {
		if !g.IsDir() {
			continue
		}
		groupPath := filepath.Join(root, g.Name())
		files, err := os.ReadDir(groupPath)
		if err != nil {
			return nil, fmt.Errorf("reading group directory %s: %w", groupPath, err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), types.DocumentExt) {
				continue
			}
			docs = append(docs, types.Document{
				Group: g.Name(),
				Name:  f.Name(),
				Path:  filepath.Join(groupPath, f.Name()),
			})
		}
	}
	return docs, nil
}

// ConvertAll extracts every document under cfg.InputDir that has no archive
// in cfg.OutputDir yet. A failed document is moved to cfg.ErrorDir and the
// batch continues. The returned log has one row per document seen, and is
// also written to cfg.LogPath when set, including when ctx ends the run early.
func ConvertAll(ctx context.Context, ex Extractor, cfg types.ExtractionConfig, w io.Writer) (BatchSummary, []types.LogRow, error) {
	for _, dir := range []string{cfg.OutputDir, cfg.ErrorDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return BatchSummary{}, nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	processed, err := ledger.Scan(cfg.OutputDir, types.ArchiveExt, types.DocumentKeyFromArtifact)
	if err != nil {
		return BatchSummary{}, nil, err
	}
	fmt.Fprintf(w, "found %d existing archive(s) in %s\n", processed.Len(), cfg.OutputDir)

	docs, err := Discover(cfg.InputDir)
	if err != nil {
		return BatchSummary{}, nil, err
	}

	var summary BatchSummary
	var runErr error
	rows := make([]types.LogRow, 0, len(docs))

	for _, doc := range docs {
		if processed.Has(doc.Key()) {
			fmt.Fprintf(w, "skipped %s (already processed)\n", doc.Name)
			summary.Skipped++
			rows = append(rows, types.LogRow{Group: doc.Group, File: doc.Name, Status: types.StatusProcessed})
			continue
		}

		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		fmt.Fprintf(w, "extracting %s\n", doc.Name)
		outPath := filepath.Join(cfg.OutputDir, doc.ArtifactName())

		if err := ConvertDocument(ctx, ex, doc, outPath); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", doc.Name, err)
			summary.Failed++
			rows = append(rows, types.LogRow{Group: doc.Group, File: doc.Name, Status: types.ErrorStatus(err)})

			errPath := filepath.Join(cfg.ErrorDir, doc.Key())
			if err := moveFile(doc.Path, errPath); err != nil {
				fmt.Fprintf(w, "failed  %s: moving to error directory: %v\n", doc.Name, err)
			} else {
				fmt.Fprintf(w, "moved %s to %s\n", doc.Name, errPath)
			}
			continue
		}

		fmt.Fprintf(w, "extracted %s to %s\n", doc.Name, outPath)
		summary.Converted++
		rows = append(rows, types.LogRow{Group: doc.Group, File: doc.Name, Status: types.StatusProcessed})
	}

	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d skipped, %d failed (total: %d)\n",
		summary.Converted, summary.Skipped, summary.Failed, summary.Total())

	if cfg.LogPath != "" {
		if err := report.WriteLog(cfg.LogPath, rows); err != nil {
			return summary, rows, fmt.Errorf("writing extraction log: %w", err)
		}
	}
	return summary, rows, runErr
}

// ConvertDocument extracts one document and writes its archive to outPath.
func ConvertDocument(ctx context.Context, ex Extractor, doc types.Document, outPath string) error {
	data, err := ex.Extract(ctx, doc.Path)
	if err != nil {
		return err
	}
	if err := report.WriteFileAtomic(outPath, data); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	return nil
}

// moveFile renames src to dst, falling back to copy and remove when the
// rename crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
