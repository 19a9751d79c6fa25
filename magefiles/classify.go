//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Classify builds the CLI and runs the classification stage. Set
// MAX_DOCUMENTS to cap the number of archives processed.
func Classify() error {
	mg.Deps(Init, Build)
	args := []string{"classify"}
	if n := os.Getenv("MAX_DOCUMENTS"); n != "" {
		args = append(args, n)
	}
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Pipeline runs extraction followed by classification.
func Pipeline() {
	mg.SerialDeps(Extract, Classify)
}
