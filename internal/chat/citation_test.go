package chat

import (
	"reflect"
	"testing"
)

func TestParseCitations(t *testing.T) {
	t.Parallel()
	tokens := ParseCitations("Teşvik belgesi E-TUYS üzerinden alınır [1]. Detaylar için [2, 3] kayıtlarına bakın.")
	if len(tokens) != 5 {
		t.Fatalf("expected 5 tokens, got %d: %+v", len(tokens), tokens)
	}
	if tokens[0].Kind != TokenLiteral || tokens[1].Kind != TokenCitation {
		t.Fatalf("unexpected token kinds: %+v", tokens)
	}
	if !reflect.DeepEqual(tokens[1].Indices, []int{1}) {
		t.Fatalf("first citation indices: %+v", tokens[1].Indices)
	}
	if !reflect.DeepEqual(tokens[3].Indices, []int{2, 3}) {
		t.Fatalf("multi citation indices: %+v", tokens[3].Indices)
	}
}

func TestParseCitationsNoMarkers(t *testing.T) {
	t.Parallel()
	tokens := ParseCitations("düz metin, işaret yok")
	if len(tokens) != 1 || tokens[0].Kind != TokenLiteral {
		t.Fatalf("plain text should yield one literal token: %+v", tokens)
	}
}

func TestParseCitationsMalformedStaysLiteral(t *testing.T) {
	t.Parallel()
	tokens := ParseCitations("köşeli ama sayı değil [abc] ve [1a]")
	for _, tok := range tokens {
		if tok.Kind == TokenCitation {
			t.Fatalf("malformed marker parsed as citation: %+v", tok)
		}
	}
}

func TestFilterIndices(t *testing.T) {
	t.Parallel()
	sources := []Source{{Index: 1}, {Index: 2}}
	got := FilterIndices([]int{1, 7, 2}, sources)
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("unknown indices must be dropped: %+v", got)
	}
	if FilterIndices([]int{9}, sources) != nil {
		t.Fatalf("all-unknown marker should filter to nil")
	}
}
