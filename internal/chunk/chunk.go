// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/pdfcoder/pkg/types"
)

// Split turns each record into one chunk whose serialized content fits
// maxTokens. A record that alone exceeds the budget is split at rune
// boundaries into several chunks that share its page; each piece is
// serialized as its own record and gets its own ID.
//
// source identifies the archive the records came from and seeds every ID.
func Split(records []types.TextRecord, source string, tok Tokenizer, maxTokens int) ([]types.Chunk, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", maxTokens)
	}

	var chunks []types.Chunk
	for _, rec := range records {
		content, err := MarshalRecord(rec)
		if err != nil {
			return nil, err
		}

		tokens := tok.Count(content)
		if tokens <= maxTokens {
			chunks = append(chunks, newChunk(source, rec.PageNumber(), content))
			continue
		}

		pieces, err := forceSplit(rec, source, tok, maxTokens, tokens)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, pieces...)
	}
	return chunks, nil
}

// forceSplit cuts an oversized record into sub-records that each fit the
// budget. The slice length starts from the record's runes-per-token ratio and
// shrinks until the serialized piece fits; a single rune is always accepted.
func forceSplit(rec types.TextRecord, source string, tok Tokenizer, maxTokens, tokens int) ([]types.Chunk, error) {
	runes := []rune(rec.Text)
	estimate := len(runes) * maxTokens / tokens
	if estimate < 1 {
		estimate = 1
	}

	var chunks []types.Chunk
	for start := 0; start < len(runes); {
		size := estimate
		if rest := len(runes) - start; size > rest {
			size = rest
		}

		for {
			piece := types.TextRecord{Text: string(runes[start : start+size]), Page: rec.Page}
			content, err := MarshalRecord(piece)
			if err != nil {
				return nil, err
			}

			n := tok.Count(content)
			if n <= maxTokens || size == 1 {
				chunks = append(chunks, newChunk(source, rec.PageNumber(), content))
				break
			}

			next := size * maxTokens / n
			if next >= size {
				next = size - 1
			}
			if next < 1 {
				next = 1
			}
			size = next
		}
		start += size
	}
	return chunks, nil
}

func newChunk(source string, page int, content string) types.Chunk {
	return types.Chunk{
		Content: content,
		Page:    page,
		ID:      StableID(source, page, content),
	}
}

// MarshalRecord serializes a record as compact JSON without HTML escaping,
// so the <, > and & characters count as themselves.
func MarshalRecord(rec types.TextRecord) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return "", fmt.Errorf("marshaling record: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// UnmarshalRecord parses chunk content back into a record.
func UnmarshalRecord(content string) (types.TextRecord, error) {
	var rec types.TextRecord
	if err := json.Unmarshal([]byte(content), &rec); err != nil {
		return types.TextRecord{}, fmt.Errorf("decoding chunk content: %w", err)
	}
	return rec, nil
}

// StableID derives a chunk ID from the archive identifier, page, and record
// JSON: the first 16 hex characters of their SHA-256.
func StableID(source string, page int, record string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(page)))
	h.Write([]byte{0})
	h.Write([]byte(record))
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
