// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the flat output files of both stages: per-document
// classification CSVs, the extraction log CSV, and YAML run summaries.
// Every file is written to a temporary name and renamed into place, so a
// file that exists is always complete.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfcoder/pkg/types"
)

const (
	// ReportPrefix and ReportExt frame the report filename around the archive stem.
	ReportPrefix = "extracted_data_"
	ReportExt    = ".csv"
)

var (
	resultHeader = []string{"File", "Codes", "Page", "ID", "Text"}
	logHeader    = []string{"Country", "File", "Status"}
)

// ReportName returns the report filename for an archive stem.
func ReportName(stem string) string {
	return ReportPrefix + stem + ReportExt
}

// StemFromReport maps a report filename back to its archive stem.
func StemFromReport(name string) string {
	return strings.TrimPrefix(strings.TrimSuffix(name, ReportExt), ReportPrefix)
}

// WriteResults writes the classification report for one document. An empty
// result set still produces a header-only file.
func WriteResults(path string, results []types.ClassificationResult) error {
	rows := make([][]string, 0, len(results)+1)
	rows = append(rows, resultHeader)
	for _, r := range results {
		rows = append(rows, []string{r.File, r.Codes, strconv.Itoa(r.Page), r.ID, r.Text})
	}
	return writeCSV(path, rows)
}

// WriteLog writes the extraction log.
func WriteLog(path string, entries []types.LogRow) error {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, logHeader)
	for _, e := range entries {
		rows = append(rows, []string{e.Group, e.File, e.Status})
	}
	return writeCSV(path, rows)
}

// WriteSummary marshals v as YAML to path.
func WriteSummary(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	return WriteFileAtomic(path, data)
}

func writeCSV(path string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return WriteFileAtomic(path, buf.Bytes())
}

// WriteFileAtomic writes data to a temporary file beside path and renames
// it into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
