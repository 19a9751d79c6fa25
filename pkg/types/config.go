// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that call external services.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PDFServicesConfig holds the credentials and endpoint of the document
// extraction service.
type PDFServicesConfig struct {
	HTTPConfig `yaml:",inline"`

	// ClientID and ClientSecret form the service principal credential pair.
	ClientID     string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`

	// BaseURL is the service endpoint (default https://pdf-services.adobe.io).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// PollInterval is the delay between job status checks (default 2s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
}

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	// InputDir is the root of the two-level <group>/<document>.pdf tree.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir receives one extraction archive per document.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// ErrorDir receives source documents whose extraction failed.
	ErrorDir string `json:"error_dir" yaml:"error_dir"`

	// LogPath is the CSV log rebuilt on every run.
	LogPath string `json:"log_path" yaml:"log_path"`
}

// AIConfig holds settings for the classification service.
type AIConfig struct {
	// Model is the chat model identifier (default "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the service endpoint; empty uses the SDK default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxResponseTokens caps the length of each classification response (default 500).
	MaxResponseTokens int `json:"max_response_tokens" yaml:"max_response_tokens"`

	// RequestsPerMinute paces classification calls. Zero disables pacing.
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
}

// ClassificationConfig holds settings for the chunk-and-classify stage.
type ClassificationConfig struct {
	AIConfig `yaml:",inline"`

	// ArchiveDir holds the extraction archives produced by the extraction stage.
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// ReportDir receives one CSV report per archive.
	ReportDir string `json:"report_dir" yaml:"report_dir"`

	// MaxChunkTokens is the token budget of a single chunk (default 1000).
	MaxChunkTokens int `json:"max_chunk_tokens" yaml:"max_chunk_tokens"`

	// MaxDocuments stops the run after this many documents are processed.
	// Zero means no limit.
	MaxDocuments int `json:"max_documents" yaml:"max_documents"`
}

// DefaultMaxChunkTokens is the chunk token budget used when none is configured.
const DefaultMaxChunkTokens = 1000
