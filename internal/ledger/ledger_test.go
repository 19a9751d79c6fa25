// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "France_report.zip")
	touch(t, dir, "Chile_annual.zip")
	touch(t, dir, "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.zip"), 0o755))

	set, err := Scan(dir, ".zip", func(name string) string {
		return strings.Replace(name, ".zip", ".pdf", 1)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has("France_report.pdf"))
	assert.True(t, set.Has("Chile_annual.pdf"))
	assert.False(t, set.Has("notes.txt"))
	assert.False(t, set.Has("nested.pdf"))
}

func TestScan_MissingDirectory(t *testing.T) {
	set, err := Scan(filepath.Join(t.TempDir(), "absent"), ".csv", func(n string) string { return n })
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.False(t, set.Has("anything"))
}

func TestScan_SnapshotIgnoresLaterWrites(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.csv")

	set, err := Scan(dir, ".csv", func(n string) string { return n })
	require.NoError(t, err)

	touch(t, dir, "b.csv")
	assert.True(t, set.Has("a.csv"))
	assert.False(t, set.Has("b.csv"))
}
