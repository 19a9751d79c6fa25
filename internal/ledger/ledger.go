// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger derives which documents were already processed by listing
// an output directory. The set is built once per run and never updated.
package ledger

import (
	"fmt"
	"os"
	"strings"
)

// Set is a read-only collection of processed document keys.
type Set struct {
	keys map[string]struct{}
}

// KeyFunc maps an output filename to the document key it proves processed.
type KeyFunc func(name string) string

// Scan lists dir and records one key per regular file whose name ends in
// suffix. A missing directory yields an empty set.
func Scan(dir, suffix string, key KeyFunc) (Set, error) {
	set := Set{keys: make(map[string]struct{})}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return Set{}, fmt.Errorf("reading output directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		set.keys[key(entry.Name())] = struct{}{}
	}
	return set, nil
}

// Has reports whether key was processed before this run started.
func (s Set) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of processed keys.
func (s Set) Len() int {
	return len(s.keys)
}
