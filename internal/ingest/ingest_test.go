package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCorpus(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeCorpus(t, `[
	  {"canonical_question": "Teşvik belgesi nasıl alınır?", "canonical_answer": "E-TUYS üzerinden.", "variants": ["belge başvurusu"], "source_document": "rehber.pdf"},
	  {"canonical_question": "KDV istisnası nedir?", "canonical_answer": "Makine alımlarında uygulanır."}
	]`)
	entries, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].SourceDocument != "rehber.pdf" || len(entries[0].Variants) != 1 {
		t.Fatalf("entry fields lost: %+v", entries[0])
	}
}

func TestLoadFileRejectsBlankFields(t *testing.T) {
	path := writeCorpus(t, `[{"canonical_question": "  ", "canonical_answer": "x"}]`)
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("blank canonical question must fail")
	}
	path = writeCorpus(t, `[{"canonical_question": "soru", "canonical_answer": ""}]`)
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("blank canonical answer must fail")
	}
}

func TestLoadFileRejectsBadJSON(t *testing.T) {
	path := writeCorpus(t, `{not json`)
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("malformed corpus must fail")
	}
}

func TestEmbeddingInput(t *testing.T) {
	e := Entry{CanonicalQuestion: "soru", Variants: []string{"v1", "v2"}}
	if got := embeddingInput(e); got != "soru\nv1\nv2" {
		t.Fatalf("unexpected input: %q", got)
	}
	if got := embeddingInput(Entry{CanonicalQuestion: "soru"}); got != "soru" {
		t.Fatalf("variant-free entry should embed the question alone: %q", got)
	}
}
