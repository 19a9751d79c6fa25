// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk turns extraction payloads into token-bounded chunks ready
// for classification: it filters qualifying text, cleans it, merges passages
// broken across extraction boundaries, and splits the result to fit a budget.
package chunk

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/pdfcoder/internal/archive"
	"github.com/pdiddy/pdfcoder/pkg/types"
)

const (
	textKey = "Text"
	pageKey = "Page"

	// MinTextLength is the minimum rune length of a qualifying Text value.
	MinTextLength = 50

	allowedPunctuation = ".,!?()[]{}<>-"
	sentenceTerminals  = ".!?"
)

// FilterRecords walks every payload depth-first and returns the cleaned,
// merged text records in document order.
func FilterRecords(payloads []archive.Node) []types.TextRecord {
	var out []types.TextRecord
	for _, p := range payloads {
		out = walk(p, nil, out)
	}
	return out
}

// walk visits n with the page inherited from its ancestors. An object's own
// Page member applies to the object and everything beneath it.
func walk(n archive.Node, page *int, out []types.TextRecord) []types.TextRecord {
	switch n.Kind {
	case archive.KindObject:
		if v, ok := n.Get(pageKey); ok {
			if p, ok := v.AsInt(); ok {
				page = &p
			}
		}
		for _, f := range n.Fields {
			if f.Key == textKey {
				if s, ok := f.Value.AsString(); ok && utf8.RuneCountInString(s) >= MinTextLength {
					if cleaned := CleanText(s); strings.TrimSpace(cleaned) != "" {
						out = appendRecord(out, cleaned, page)
					}
					continue
				}
			}
			out = walk(f.Value, page, out)
		}
	case archive.KindArray:
		for _, item := range n.Items {
			out = walk(item, page, out)
		}
	}
	return out
}

// appendRecord adds text as a new record, or merges it into the last record
// when that record does not end in sentence-terminal punctuation. A merged
// record keeps the page of its first fragment.
func appendRecord(out []types.TextRecord, text string, page *int) []types.TextRecord {
	if n := len(out); n > 0 && !endsSentence(out[n-1].Text) {
		out[n-1].Text += " " + text
		return out
	}
	return append(out, types.TextRecord{Text: text, Page: page})
}

func endsSentence(text string) bool {
	r, size := utf8.DecodeLastRuneInString(text)
	if size == 0 {
		return false
	}
	return strings.ContainsRune(sentenceTerminals, r)
}

// CleanText removes every character other than ASCII letters and digits,
// whitespace, and the punctuation .,!?()[]{}<>- keeping order.
func CleanText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return r
		case strings.ContainsRune(allowedPunctuation, r):
			return r
		}
		return -1
	}, s)
}
