// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"strings"
)

const (
	// DocumentExt is the extension of input documents.
	DocumentExt = ".pdf"

	// ArchiveExt is the extension of extraction artifacts.
	ArchiveExt = ".zip"
)

// Document is an input PDF identified by its group folder and filename.
type Document struct {
	// Group is the name of the first-level folder (e.g. a country).
	Group string `json:"group" yaml:"group"`

	// Name is the document filename including its extension.
	Name string `json:"name" yaml:"name"`

	// Path is the filesystem path of the document.
	Path string `json:"path" yaml:"path"`
}

// Key returns "{group}_{name}", the identity used by the extraction ledger.
func (d Document) Key() string {
	return d.Group + "_" + d.Name
}

// ArtifactName returns the archive filename for the document:
// "{group}_{name}" with the trailing document extension replaced by ".zip".
func (d Document) ArtifactName() string {
	return d.Group + "_" + strings.TrimSuffix(d.Name, DocumentExt) + ArchiveExt
}

// DocumentKeyFromArtifact maps an archive filename back to its document key.
func DocumentKeyFromArtifact(name string) string {
	return strings.TrimSuffix(name, ArchiveExt) + DocumentExt
}

// ArchiveStem returns the archive filename without directory or the
// trailing archive extension.
func ArchiveStem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ArchiveExt)
}

// TextRecord is one qualifying text passage recovered from an extraction payload.
type TextRecord struct {
	Text string `json:"Text"`
	Page *int   `json:"Page,omitempty"`
}

// PageNumber returns the record's page, or 0 when the payload carried none.
func (r TextRecord) PageNumber() int {
	if r.Page == nil {
		return 0
	}
	return *r.Page
}

// Chunk is a token-bounded unit submitted to the classification service.
// Content is the JSON serialization of a TextRecord.
type Chunk struct {
	Content string `json:"content" yaml:"content"`
	Page    int    `json:"page" yaml:"page"`
	ID      string `json:"id" yaml:"id"`
}

// NotRelevant is the literal the classification service returns when no code applies.
const NotRelevant = "Not relevant"

// UnknownCodes is recorded when a response neither says NotRelevant nor carries a Codes line.
const UnknownCodes = "Unknown"

// ClassificationResult is one classified chunk of a document.
type ClassificationResult struct {
	File  string `json:"file" yaml:"file"`
	Codes string `json:"codes" yaml:"codes"`
	Page  int    `json:"page" yaml:"page"`
	ID    string `json:"id" yaml:"id"`
	Text  string `json:"text" yaml:"text"`
}

// StatusProcessed marks a document whose extraction archive exists.
const StatusProcessed = "Processed"

// LogRow is one line of the extraction log.
type LogRow struct {
	Group  string `json:"group" yaml:"group"`
	File   string `json:"file" yaml:"file"`
	Status string `json:"status" yaml:"status"`
}

// ErrorStatus formats the log status of a failed extraction.
func ErrorStatus(err error) string {
	return "Error: " + err.Error()
}
