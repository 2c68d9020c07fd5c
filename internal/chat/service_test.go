package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/tesvikportal/asistan/internal/store"
	"github.com/tesvikportal/asistan/provider"
)

type stubProvider struct {
	answer        string
	completeCalls int
	embedCalls    int
	lastMessages  []provider.Message
}

func (s *stubProvider) Complete(ctx context.Context, messages []provider.Message) (string, error) {
	s.completeCalls++
	s.lastMessages = messages
	return s.answer, nil
}

func (s *stubProvider) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	s.embedCalls++
	return [][]float32{{0.1, 0.2, 0.3}}, nil
}

func TestAnswerCasualSkipsRetrieval(t *testing.T) {
	p := &stubProvider{answer: "Merhaba! Size nasıl yardımcı olabilirim?"}
	svc := NewService(p, &Matcher{Vectors: &stubVectors{}}, nil, nil)

	res, err := svc.Answer(context.Background(), []Turn{{Role: "user", Content: "merhaba"}})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !res.Debug.IsCasual {
		t.Fatalf("greeting should be flagged casual")
	}
	if p.embedCalls != 0 {
		t.Fatalf("casual path must not embed the query")
	}
	if len(res.Sources) != 0 {
		t.Fatalf("casual answer carries no sources")
	}
}

func TestAnswerNoMatchShortCircuits(t *testing.T) {
	p := &stubProvider{answer: "kullanılmamalı"}
	svc := NewService(p, &Matcher{Vectors: &stubVectors{}}, nil, nil)

	res, err := svc.Answer(context.Background(), []Turn{{Role: "user", Content: "uzay madenciliği teşvikleri"}})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if res.Answer != NoInformationAnswer {
		t.Fatalf("expected fixed no-information answer, got %q", res.Answer)
	}
	if p.completeCalls != 0 {
		t.Fatalf("generation must be skipped when nothing matches")
	}
	if res.Debug.MatchCount != 0 {
		t.Fatalf("debug match count should be zero")
	}
}

func TestAnswerWithMatches(t *testing.T) {
	p := &stubProvider{answer: "Teşvik belgesi başvurusu E-TUYS üzerinden yapılır [1]."}
	vectors := &stubVectors{hits: []store.QuestionVariantHit{
		{
			ID:                "qa-1",
			CanonicalQuestion: "Yatırım teşvik belgesi nasıl alınır?",
			CanonicalAnswer:   "E-TUYS üzerinden başvurulur.",
			Variants:          []string{"teşvik belgesi başvurusu"},
			SourceDocument:    "tesvik-rehberi.pdf",
			Similarity:        0.88,
		},
	}}
	svc := NewService(p, &Matcher{Vectors: vectors, Limit: 3}, nil, nil)

	res, err := svc.Answer(context.Background(), []Turn{{Role: "user", Content: "teşvik belgesi nasıl alınır"}})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if p.embedCalls != 1 || p.completeCalls != 1 {
		t.Fatalf("expected one embed and one completion, got %d/%d", p.embedCalls, p.completeCalls)
	}
	if len(res.Sources) != 1 || res.Sources[0].Index != 1 {
		t.Fatalf("sources must be numbered from 1: %+v", res.Sources)
	}
	if res.Sources[0].SourceDocument != "tesvik-rehberi.pdf" {
		t.Fatalf("source document missing: %+v", res.Sources[0])
	}
	if !strings.Contains(res.Answer, badgeInfoSentence) {
		t.Fatalf("badge suffix expected on incentive answer: %q", res.Answer)
	}
	// retrieved context rides in a trailing system message
	lastMsg := p.lastMessages[len(p.lastMessages)-1]
	if lastMsg.Role != "system" || !strings.Contains(lastMsg.Content, "[1] Soru:") {
		t.Fatalf("context message malformed: %+v", lastMsg)
	}
}

func TestAnswerRejectsBadHistory(t *testing.T) {
	svc := NewService(&stubProvider{}, &Matcher{Vectors: &stubVectors{}}, nil, nil)
	if _, err := svc.Answer(context.Background(), nil); err == nil {
		t.Fatalf("empty history must error")
	}
	if _, err := svc.Answer(context.Background(), []Turn{{Role: "assistant", Content: "x"}}); err == nil {
		t.Fatalf("history ending with assistant turn must error")
	}
	if _, err := svc.Answer(context.Background(), []Turn{{Role: "user", Content: "   "}}); err == nil {
		t.Fatalf("blank user turn must error")
	}
}
