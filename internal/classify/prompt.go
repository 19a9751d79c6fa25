// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfcoder/pkg/types"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

// Code is one single-letter taxonomy tag.
type Code struct {
	Code       string `yaml:"code"`
	Name       string `yaml:"name"`
	Definition string `yaml:"definition"`
}

// Taxonomy is the fixed code list sent with every classification request.
type Taxonomy struct {
	Instructions string `yaml:"instructions"`
	Codes        []Code `yaml:"codes"`
}

// LoadTaxonomy parses the embedded taxonomy.
func LoadTaxonomy() (Taxonomy, error) {
	var tx Taxonomy
	if err := yaml.Unmarshal(taxonomyYAML, &tx); err != nil {
		return Taxonomy{}, fmt.Errorf("parsing taxonomy: %w", err)
	}
	if len(tx.Codes) == 0 {
		return Taxonomy{}, fmt.Errorf("taxonomy defines no codes")
	}
	return tx, nil
}

var systemPromptTmpl = template.Must(template.New("system").Parse(`{{.Instructions}}
Codes:
{{range .Codes}}{{.Code}}
{{end}}
Here is a brief explanation of each of the codes:
{{range .Codes}}{{.Code}} ({{.Name}}): {{.Definition}}
{{end}}`))

// SystemPrompt renders the taxonomy as the system instruction.
func (tx Taxonomy) SystemPrompt() (string, error) {
	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, tx); err != nil {
		return "", fmt.Errorf("rendering system prompt: %w", err)
	}
	return buf.String(), nil
}

var userPromptTmpl = template.Must(template.New("user").Parse(`If you don't find that any codes match, return "{{.NotRelevant}}" only.
If you find codes that match, return them in exactly this form:
Codes: [comma-separated codes that match]
Here is the text: {{.Text}}
`))

// UserPrompt wraps one chunk's text in the response-format instruction.
func UserPrompt(text string) (string, error) {
	var buf bytes.Buffer
	data := struct{ NotRelevant, Text string }{types.NotRelevant, text}
	if err := userPromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering user prompt: %w", err)
	}
	return buf.String(), nil
}

const codesPrefix = "Codes:"

// ParseResponse interprets a classification response. relevant is false
// when the response contains the NotRelevant marker. Otherwise codes is the
// remainder of the last line starting with "Codes:", or UnknownCodes when no
// such line exists. Codes are not checked against the taxonomy.
func ParseResponse(resp string) (codes string, relevant bool) {
	if strings.Contains(resp, types.NotRelevant) {
		return "", false
	}

	codes = types.UnknownCodes
	for _, line := range strings.Split(resp, "\n") {
		if strings.HasPrefix(line, codesPrefix) {
			codes = strings.TrimSpace(strings.TrimPrefix(line, codesPrefix))
		}
	}
	return codes, true
}
