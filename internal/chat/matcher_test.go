package chat

import (
	"context"
	"testing"

	"github.com/tesvikportal/asistan/internal/store"
)

type stubVectors struct {
	hits []store.QuestionVariantHit
	err  error
}

func (s *stubVectors) SearchQuestionVariants(ctx context.Context, vector []float32, topK int, threshold float64) ([]store.QuestionVariantHit, error) {
	return s.hits, s.err
}

func corpusEntries() []store.QuestionVariantRecord {
	return []store.QuestionVariantRecord{
		{
			ID:                "qa-1",
			CanonicalQuestion: "Yatırım teşvik belgesi nasıl alınır?",
			CanonicalAnswer:   "E-TUYS üzerinden başvurulur.",
			Variants:          []string{"teşvik belgesi başvurusu", "belge almak için ne yapmalıyım"},
			SourceDocument:    "tesvik-rehberi.pdf",
		},
		{
			ID:                "qa-2",
			CanonicalQuestion: "HIT-30 programı nedir?",
			CanonicalAnswer:   "Yüksek teknoloji yatırımlarını destekleyen programdır.",
			Variants:          []string{"hamle yüksek teknoloji programı"},
			SourceDocument:    "hit30.pdf",
		},
	}
}

func TestMatchHybridPromotion(t *testing.T) {
	lexical, err := NewLexicalIndex(corpusEntries())
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	m := &Matcher{
		Vectors: &stubVectors{hits: []store.QuestionVariantHit{
			{
				ID:                "qa-1",
				CanonicalQuestion: "Yatırım teşvik belgesi nasıl alınır?",
				CanonicalAnswer:   "E-TUYS üzerinden başvurulur.",
				Variants:          []string{"teşvik belgesi başvurusu"},
				SourceDocument:    "tesvik-rehberi.pdf",
				Similarity:        0.91,
			},
		}},
		Lexical: lexical,
		Limit:   3,
	}
	results, err := m.Match(context.Background(), "teşvik belgesi nasıl alınır", []float32{0.1, 0.2})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one match")
	}
	if results[0].ID != "qa-1" {
		t.Fatalf("expected qa-1 first, got %s", results[0].ID)
	}
	if results[0].MatchType != MatchTypeHybrid {
		t.Fatalf("entry in both lists should be hybrid, got %s", results[0].MatchType)
	}
	if results[0].Similarity != 0.91 {
		t.Fatalf("hybrid match should keep vector similarity, got %f", results[0].Similarity)
	}
}

func TestMatchVectorOnly(t *testing.T) {
	m := &Matcher{
		Vectors: &stubVectors{hits: []store.QuestionVariantHit{
			{
				ID:                "qa-2",
				CanonicalQuestion: "HIT-30 programı nedir?",
				CanonicalAnswer:   "Yüksek teknoloji yatırımlarını destekleyen programdır.",
				Similarity:        0.77,
			},
		}},
		Limit: 3,
	}
	results, err := m.Match(context.Background(), "tamamen alakasız sorgu", []float32{0.3})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 1 || results[0].MatchType != MatchTypeVector {
		t.Fatalf("expected single vector match, got %+v", results)
	}
}

func TestMatchLexicalOnly(t *testing.T) {
	lexical, err := NewLexicalIndex(corpusEntries())
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	m := &Matcher{
		Vectors: &stubVectors{},
		Lexical: lexical,
		Limit:   3,
	}
	results, err := m.Match(context.Background(), "hamle yüksek teknoloji programı", []float32{0.3})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected lexical match")
	}
	for _, r := range results {
		if r.MatchType != MatchTypeLexical {
			t.Fatalf("expected lexical match type, got %s", r.MatchType)
		}
		if r.Similarity <= 0 || r.Similarity >= 1 {
			t.Fatalf("normalized lexical score must be in (0,1), got %f", r.Similarity)
		}
	}
}

func TestMatchEmptyIsNotError(t *testing.T) {
	m := &Matcher{Vectors: &stubVectors{}, Limit: 3}
	results, err := m.Match(context.Background(), "soru", []float32{0.1})
	if err != nil {
		t.Fatalf("empty result should not be an error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected zero results")
	}
}

func TestMatchedPhrasingsOrder(t *testing.T) {
	results := []MatchResult{
		{CanonicalQuestion: "soru bir", Variants: []string{"varyant a", "varyant b"}},
		{CanonicalQuestion: "soru iki"},
	}
	got := MatchedPhrasings(results)
	want := []string{"soru bir", "varyant a", "varyant b", "soru iki"}
	if len(got) != len(want) {
		t.Fatalf("expected %d phrasings, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("phrasing %d: want %q got %q", i, want[i], got[i])
		}
	}
}

func TestNormalizeLexicalScore(t *testing.T) {
	if normalizeLexicalScore(0) != 0 {
		t.Fatalf("zero score should normalize to zero")
	}
	if s := normalizeLexicalScore(3); s <= 0.7 || s >= 0.8 {
		t.Fatalf("unexpected normalization: %f", s)
	}
}
