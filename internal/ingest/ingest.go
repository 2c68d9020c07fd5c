package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/tesvikportal/asistan/internal/store"
	"github.com/tesvikportal/asistan/provider"
)

// Entry is one canonical Q&A record in the corpus file.
type Entry struct {
	CanonicalQuestion string   `json:"canonical_question"`
	CanonicalAnswer   string   `json:"canonical_answer"`
	Variants          []string `json:"variants"`
	SourceDocument    string   `json:"source_document"`
}

// embedBatchSize keeps each embeddings request well under provider input
// limits.
const embedBatchSize = 64

// Ingester embeds corpus entries and upserts them into the store.
type Ingester struct {
	Store    *store.Store
	Embedder provider.Provider
	Logger   *log.Logger
}

func New(st *store.Store, embedder provider.Provider) *Ingester {
	return &Ingester{
		Store:    st,
		Embedder: embedder,
		Logger:   log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
	}
}

// LoadFile reads and validates a corpus JSON file.
func LoadFile(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.CanonicalQuestion) == "" {
			return nil, fmt.Errorf("entry %d: canonical_question is empty", i)
		}
		if strings.TrimSpace(e.CanonicalAnswer) == "" {
			return nil, fmt.Errorf("entry %d: canonical_answer is empty", i)
		}
	}
	return entries, nil
}

// Run embeds every canonical question and writes the entries to the store.
// Entries are keyed by canonical question, so re-running over the same file
// refreshes answers and embeddings in place.
func (ing *Ingester) Run(ctx context.Context, entries []Entry) (int, error) {
	total := 0
	for start := 0; start < len(entries); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		inputs := make([]string, len(batch))
		for i, e := range batch {
			inputs[i] = embeddingInput(e)
		}
		vectors, err := ing.Embedder.CreateEmbedding(ctx, inputs)
		if err != nil {
			return total, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return total, fmt.Errorf("embed batch at %d: got %d vectors for %d inputs", start, len(vectors), len(batch))
		}

		for i, e := range batch {
			rec := store.QuestionVariantRecord{
				CanonicalQuestion: e.CanonicalQuestion,
				CanonicalAnswer:   e.CanonicalAnswer,
				Variants:          e.Variants,
				SourceDocument:    e.SourceDocument,
				Embedding:         vectors[i],
			}
			if err := ing.Store.UpsertQuestionVariant(ctx, rec); err != nil {
				return total, fmt.Errorf("upsert %q: %w", e.CanonicalQuestion, err)
			}
			total++
		}
		ing.Logger.Printf("ingested %d/%d entries", total, len(entries))
	}
	return total, nil
}

// embeddingInput joins the canonical question with its variants so the
// stored vector covers every phrasing users are likely to type.
func embeddingInput(e Entry) string {
	if len(e.Variants) == 0 {
		return e.CanonicalQuestion
	}
	return e.CanonicalQuestion + "\n" + strings.Join(e.Variants, "\n")
}
