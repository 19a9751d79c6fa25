// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Credentials resolve from the environment first and fall back to these files:
// pdf-services-client-id, pdf-services-client-secret, openai-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credential names a secret by its environment variable and its file in the
// secrets directory.
type Credential struct {
	Env  string
	File string
}

var (
	PDFServicesClientID     = Credential{Env: "PDF_SERVICES_CLIENT_ID", File: "pdf-services-client-id"}
	PDFServicesClientSecret = Credential{Env: "PDF_SERVICES_CLIENT_SECRET", File: "pdf-services-client-secret"}
	OpenAIAPIKey            = Credential{Env: "OPENAI_API_KEY", File: "openai-api-key"}
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Resolve returns the credential from the environment, or from loaded when
// the variable is unset or blank.
func Resolve(loaded map[string]string, c Credential) string {
	if v := strings.TrimSpace(os.Getenv(c.Env)); v != "" {
		return v
	}
	return loaded[c.File]
}

// Require is Resolve for credentials a command cannot run without.
func Require(loaded map[string]string, c Credential) (string, error) {
	v := Resolve(loaded, c)
	if v == "" {
		return "", fmt.Errorf("missing credential: set %s or write it to the secrets file %s", c.Env, c.File)
	}
	return v, nil
}
