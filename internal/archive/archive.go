// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive unpacks extraction artifacts: zip files holding one or
// more JSON payloads produced by the document extraction service.
package archive

import (
	"archive/zip"
	"fmt"
	"strings"
)

const payloadExt = ".json"

// ReadPayloads opens the zip at path and decodes every JSON entry in
// archive order. Non-JSON entries are ignored.
func ReadPayloads(path string) ([]Node, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer zr.Close()

	return readFiles(zr.File)
}

func readFiles(files []*zip.File) ([]Node, error) {
	entries := make([]*zip.File, 0, len(files))
	for _, f := range files {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, payloadExt) {
			continue
		}
		entries = append(entries, f)
	}

	payloads := make([]Node, 0, len(entries))
	for _, f := range entries {
		n, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, n)
	}
	return payloads, nil
}

func readEntry(f *zip.File) (Node, error) {
	rc, err := f.Open()
	if err != nil {
		return Node{}, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	n, err := Decode(rc)
	if err != nil {
		return Node{}, fmt.Errorf("decoding %s: %w", f.Name, err)
	}
	return n, nil
}
