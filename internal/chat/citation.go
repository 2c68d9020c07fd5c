package chat

import (
	"regexp"
	"strconv"
	"strings"
)

// Citation markers look like [1] or [2, 5] and reference Source.Index values.
var citationPattern = regexp.MustCompile(`\[(\d+(?:\s*,\s*\d+)*)\]`)

// TokenKind discriminates citation tokens from literal text.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenCitation
)

// Token is one piece of an answer after citation parsing: either literal
// text, or a citation reference carrying 1-based source indices.
type Token struct {
	Kind    TokenKind
	Text    string
	Indices []int
}

// ParseCitations splits answer text into a token stream of literal segments
// and citation references. Parsing never fails; malformed markers stay
// literal text.
func ParseCitations(text string) []Token {
	var tokens []Token
	last := 0
	for _, loc := range citationPattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			tokens = append(tokens, Token{Kind: TokenLiteral, Text: text[last:loc[0]]})
		}
		tokens = append(tokens, Token{
			Kind:    TokenCitation,
			Text:    text[loc[0]:loc[1]],
			Indices: parseIndices(text[loc[2]:loc[3]]),
		})
		last = loc[1]
	}
	if last < len(text) {
		tokens = append(tokens, Token{Kind: TokenLiteral, Text: text[last:]})
	}
	return tokens
}

// FilterIndices keeps only the indices present in the sources list. A marker
// whose every index is unknown should be omitted by the renderer, not crash.
func FilterIndices(indices []int, sources []Source) []int {
	known := make(map[int]struct{}, len(sources))
	for _, s := range sources {
		known[s.Index] = struct{}{}
	}
	var out []int
	for _, idx := range indices {
		if _, ok := known[idx]; ok {
			out = append(out, idx)
		}
	}
	return out
}

func parseIndices(raw string) []int {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
