// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfcoder/pkg/types"
)

// fakeExtractor returns canned archive bytes, or an error for paths listed
// in errs. It records every path it was asked to extract.
type fakeExtractor struct {
	errs  map[string]error
	calls []string
}

func (f *fakeExtractor) Extract(_ context.Context, pdfPath string) ([]byte, error) {
	f.calls = append(f.calls, pdfPath)
	if err, ok := f.errs[filepath.Base(pdfPath)]; ok {
		return nil, err
	}
	return []byte("PK archive for " + filepath.Base(pdfPath)), nil
}

// cancellingExtractor succeeds once and cancels the run's context.
type cancellingExtractor struct {
	cancel context.CancelFunc
}

func (c *cancellingExtractor) Extract(_ context.Context, pdfPath string) ([]byte, error) {
	c.cancel()
	return []byte("PK archive for " + filepath.Base(pdfPath)), nil
}

// setupTree creates root/<group>/<file> for every "group/file" entry.
func setupTree(t *testing.T, files ...string) types.ExtractionConfig {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "pdf")
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))
	}
	return types.ExtractionConfig{
		InputDir:  root,
		OutputDir: filepath.Join(base, "json"),
		ErrorDir:  filepath.Join(base, "error"),
		LogPath:   filepath.Join(base, "extraction_log.csv"),
	}
}

func readLog(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestDiscover(t *testing.T) {
	cfg := setupTree(t, "France/a.pdf", "France/notes.txt", "Chile/b.pdf", "Chile/sub/c.pdf")
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "loose.pdf"), []byte("x"), 0o644))

	docs, err := Discover(cfg.InputDir)
	require.NoError(t, err)

	var keys []string
	for _, d := range docs {
		keys = append(keys, d.Key())
	}
	assert.ElementsMatch(t, []string{"France_a.pdf", "Chile_b.pdf"}, keys)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestConvertAll(t *testing.T) {
	cfg := setupTree(t, "France/a.pdf", "France/b.pdf", "Chile/c.pdf")
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, "France_b.zip"), []byte("existing"), 0o644))

	ex := &fakeExtractor{errs: map[string]error{
		"c.pdf": &ServiceUsageError{Op: "submit job", Message: "quota exceeded"},
	}}
	var log bytes.Buffer

	summary, rows, err := ConvertAll(context.Background(), ex, cfg, &log)
	require.NoError(t, err)

	assert.Equal(t, BatchSummary{Converted: 1, Skipped: 1, Failed: 1}, summary)
	assert.True(t, summary.HasFailures())
	assert.Equal(t, 3, summary.Total())
	assert.Len(t, ex.calls, 2, "existing archive is not resubmitted")

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "France_a.zip"))
	require.NoError(t, err)
	assert.Equal(t, "PK archive for a.pdf", string(data))

	// failed source moved to the error directory, successes left in place
	_, err = os.Stat(filepath.Join(cfg.InputDir, "Chile", "c.pdf"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(cfg.ErrorDir, "Chile_c.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.InputDir, "France", "a.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.OutputDir, "Chile_c.zip"))
	assert.True(t, os.IsNotExist(err))

	statuses := make(map[string]string)
	for _, r := range rows {
		statuses[r.Group+"/"+r.File] = r.Status
	}
	assert.Equal(t, types.StatusProcessed, statuses["France/a.pdf"])
	assert.Equal(t, types.StatusProcessed, statuses["France/b.pdf"])
	assert.True(t, strings.HasPrefix(statuses["Chile/c.pdf"], "Error: "))
	assert.Contains(t, statuses["Chile/c.pdf"], "quota exceeded")

	logRows := readLog(t, cfg.LogPath)
	require.Len(t, logRows, 4)
	assert.Equal(t, []string{"Country", "File", "Status"}, logRows[0])

	out := log.String()
	assert.Contains(t, out, "skipped b.pdf")
	assert.Contains(t, out, "failed  c.pdf")
	assert.Contains(t, out, "Batch summary:")
}

func TestConvertAll_Idempotent(t *testing.T) {
	cfg := setupTree(t, "France/a.pdf", "Chile/b.pdf", "Chile/report.pdf.pdf")
	ex := &fakeExtractor{}

	_, _, err := ConvertAll(context.Background(), ex, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, ex.calls, 3)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "Chile_report.pdf.zip"))

	before, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)

	second := &fakeExtractor{}
	summary, rows, err := ConvertAll(context.Background(), second, cfg, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Empty(t, second.calls)
	assert.Equal(t, BatchSummary{Skipped: 3}, summary)
	for _, r := range rows {
		assert.Equal(t, types.StatusProcessed, r.Status)
	}

	after, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}

func TestConvertAll_LogRebuiltEachRun(t *testing.T) {
	cfg := setupTree(t, "France/a.pdf")
	require.NoError(t, os.WriteFile(cfg.LogPath, []byte("Country,File,Status\nOld,gone.pdf,Processed\n"), 0o644))

	_, _, err := ConvertAll(context.Background(), &fakeExtractor{}, cfg, &bytes.Buffer{})
	require.NoError(t, err)

	rows := readLog(t, cfg.LogPath)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"France", "a.pdf", "Processed"}, rows[1])
}

func TestConvertAll_EveryFailureKindContinues(t *testing.T) {
	cfg := setupTree(t, "A/1.pdf", "A/2.pdf", "A/3.pdf", "A/4.pdf")
	ex := &fakeExtractor{errs: map[string]error{
		"1.pdf": &ServiceAPIError{Op: "extract", StatusCode: 400, Message: "bad pdf"},
		"2.pdf": &ServiceUsageError{Op: "upload", Message: "rate limited"},
		"3.pdf": &SDKError{Op: "download", Err: errors.New("connection reset")},
	}}

	summary, _, err := ConvertAll(context.Background(), ex, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Converted: 1, Failed: 3}, summary)
	assert.Len(t, ex.calls, 4)
}

func TestConvertAll_CancelledContext(t *testing.T) {
	cfg := setupTree(t, "France/a.pdf")
	require.NoError(t, os.WriteFile(cfg.LogPath, []byte("Country,File,Status\nOld,gone.pdf,Processed\n"), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := &fakeExtractor{}
	_, _, err := ConvertAll(ctx, ex, cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ex.calls)

	rows := readLog(t, cfg.LogPath)
	assert.Equal(t, [][]string{{"Country", "File", "Status"}}, rows, "log is rebuilt even when the run is cut short")
}

func TestConvertAll_CancelledMidRunFlushesLog(t *testing.T) {
	cfg := setupTree(t, "A/1.pdf", "A/2.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	ex := &cancellingExtractor{cancel: cancel}

	summary, rows, err := ConvertAll(ctx, ex, cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Converted)
	require.Len(t, rows, 1)

	logRows := readLog(t, cfg.LogPath)
	require.Len(t, logRows, 2)
	assert.Equal(t, []string{"A", "1.pdf", "Processed"}, logRows[1])
}

func TestArtifactNaming(t *testing.T) {
	tests := []struct {
		name     string
		doc      types.Document
		artifact string
	}{
		{"plain", types.Document{Group: "France", Name: "annual.pdf"}, "France_annual.zip"},
		{"repeated extension", types.Document{Group: "Chile", Name: "report.pdf.pdf"}, "Chile_report.pdf.zip"},
		{"extension inside name", types.Document{Group: "Peru", Name: "a.pdf.v2.pdf"}, "Peru_a.pdf.v2.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.artifact, tt.doc.ArtifactName())
			assert.True(t, strings.HasSuffix(tt.doc.ArtifactName(), types.ArchiveExt))
			assert.Equal(t, tt.doc.Key(), types.DocumentKeyFromArtifact(tt.doc.ArtifactName()))
		})
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.pdf")
	dst := filepath.Join(dir, "dst.pdf")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	require.NoError(t, moveFile(src, dst))
	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}
