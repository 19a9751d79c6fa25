// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfcoder/pkg/types"
)

func TestLoadTaxonomy(t *testing.T) {
	tx, err := LoadTaxonomy()
	require.NoError(t, err)
	require.Len(t, tx.Codes, 6)

	var letters []string
	for _, c := range tx.Codes {
		letters = append(letters, c.Code)
		assert.NotEmpty(t, c.Definition)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, letters)
}

func TestSystemPrompt(t *testing.T) {
	tx, err := LoadTaxonomy()
	require.NoError(t, err)

	prompt, err := tx.SystemPrompt()
	require.NoError(t, err)
	assert.Contains(t, prompt, "Please be strict")
	assert.Contains(t, prompt, "B (IPCC): Any mention of the Intergovernmental Panel on Climate Change.")
	assert.Contains(t, prompt, "F (Scope3)")
}

func TestUserPrompt(t *testing.T) {
	prompt, err := UserPrompt("Emissions <fell> by 4 percent.")
	require.NoError(t, err)
	assert.Contains(t, prompt, `return "Not relevant" only`)
	assert.Contains(t, prompt, "Codes: [comma-separated codes that match]")
	assert.Contains(t, prompt, "Here is the text: Emissions <fell> by 4 percent.")
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name         string
		resp         string
		wantCodes    string
		wantRelevant bool
	}{
		{"single code", "Codes: [B]", "[B]", true},
		{"several codes", "Codes: [A, D, F]", "[A, D, F]", true},
		{"preamble", "The text mentions Paris.\nCodes: [D]", "[D]", true},
		{"last codes line wins", "Codes: [A]\nCodes: [C]", "[C]", true},
		{"not relevant", "Not relevant", "", false},
		{"not relevant inside prose", "This passage is Not relevant to the codes.", "", false},
		{"no codes line", "It mentions emissions.", types.UnknownCodes, true},
		{"indented codes line", "  Codes: [A]", types.UnknownCodes, true},
		{"empty", "", types.UnknownCodes, true},
		{"codes out of taxonomy kept", "Codes: [Z]", "[Z]", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes, relevant := ParseResponse(tt.resp)
			assert.Equal(t, tt.wantRelevant, relevant)
			assert.Equal(t, tt.wantCodes, codes)
		})
	}
}
