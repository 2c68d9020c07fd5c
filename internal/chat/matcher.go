package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/tesvikportal/asistan/internal/store"
)

const rrfK = 60 // reciprocal-rank-fusion constant

// VectorSearcher is the store-side half of the hybrid matcher.
type VectorSearcher interface {
	SearchQuestionVariants(ctx context.Context, vector []float32, topK int, threshold float64) ([]store.QuestionVariantHit, error)
}

// lexicalDoc is what gets indexed in bleve for each canonical entry: the
// canonical question plus all variant phrasings as one text blob.
type lexicalDoc struct {
	Question string `json:"question"`
	Variants string `json:"variants"`
}

// LexicalIndex is an in-memory bleve index over the Q&A corpus.
type LexicalIndex struct {
	idx  bleve.Index
	meta map[string]store.QuestionVariantRecord
	mu   sync.RWMutex
}

// NewLexicalIndex builds a memory-only bleve index from the corpus.
func NewLexicalIndex(entries []store.QuestionVariantRecord) (*LexicalIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	l := &LexicalIndex{idx: idx, meta: make(map[string]store.QuestionVariantRecord, len(entries))}
	for _, e := range entries {
		if err := l.Add(e); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add indexes a single entry, replacing any previous document with the same id.
func (l *LexicalIndex) Add(e store.QuestionVariantRecord) error {
	if e.ID == "" {
		return fmt.Errorf("entry id required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.meta[e.ID] = e
	return l.idx.Index(e.ID, lexicalDoc{
		Question: e.CanonicalQuestion,
		Variants: strings.Join(e.Variants, " "),
	})
}

type lexicalHit struct {
	entry store.QuestionVariantRecord
	score float64
	rank  int
}

// Search returns the top-k lexical hits for the query string.
func (l *LexicalIndex) Search(q string, k int) ([]lexicalHit, error) {
	query := bleve.NewQueryStringQuery(q)
	searchReq := bleve.NewSearchRequestOptions(query, k, 0, false)
	res, err := l.idx.Search(searchReq)
	if err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []lexicalHit
	for i, hit := range res.Hits {
		entry, ok := l.meta[hit.ID]
		if !ok {
			continue
		}
		out = append(out, lexicalHit{entry: entry, score: hit.Score, rank: i + 1})
	}
	return out, nil
}

// Matcher ranks Q&A entries for a query by fusing pgvector similarity search
// with bleve lexical search.
type Matcher struct {
	Vectors      VectorSearcher
	Lexical      *LexicalIndex
	Threshold    float64
	LexicalFloor float64
	Limit        int
}

// Match runs both sides of the hybrid search and fuses the ranked lists with
// reciprocal-rank fusion. Zero results is a valid outcome, not an error.
func (m *Matcher) Match(ctx context.Context, queryText string, queryVector []float32) ([]MatchResult, error) {
	limit := m.Limit
	if limit <= 0 {
		limit = 3
	}

	vecHits, err := m.Vectors.SearchQuestionVariants(ctx, queryVector, limit*3, m.Threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	var lexHits []lexicalHit
	if m.Lexical != nil {
		lexHits, err = m.Lexical.Search(queryText, limit*3)
		if err != nil {
			return nil, fmt.Errorf("lexical search: %w", err)
		}
	}

	type agg struct {
		result MatchResult
		fused  float64
	}
	merged := map[string]*agg{}
	for rank, h := range vecHits {
		merged[h.ID] = &agg{
			result: MatchResult{
				ID:                h.ID,
				CanonicalQuestion: h.CanonicalQuestion,
				CanonicalAnswer:   h.CanonicalAnswer,
				Variants:          h.Variants,
				Similarity:        h.Similarity,
				MatchType:         MatchTypeVector,
				SourceDocument:    h.SourceDocument,
			},
			fused: 1.0 / float64(rrfK+rank+1),
		}
	}
	for _, h := range lexHits {
		if h.score < m.LexicalFloor {
			continue
		}
		x, ok := merged[h.entry.ID]
		if !ok {
			merged[h.entry.ID] = &agg{
				result: MatchResult{
					ID:                h.entry.ID,
					CanonicalQuestion: h.entry.CanonicalQuestion,
					CanonicalAnswer:   h.entry.CanonicalAnswer,
					Variants:          h.entry.Variants,
					Similarity:        normalizeLexicalScore(h.score),
					MatchType:         MatchTypeLexical,
					SourceDocument:    h.entry.SourceDocument,
				},
				fused: 1.0 / float64(rrfK+h.rank),
			}
			continue
		}
		x.result.MatchType = MatchTypeHybrid
		x.fused += 1.0 / float64(rrfK+h.rank)
	}

	items := make([]*agg, 0, len(merged))
	for _, v := range merged {
		items = append(items, v)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].fused != items[j].fused {
			return items[i].fused > items[j].fused
		}
		return items[i].result.Similarity > items[j].result.Similarity
	})
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]MatchResult, 0, len(items))
	for _, it := range items {
		out = append(out, it.result)
	}
	return out, nil
}

// MatchedPhrasings flattens the matched entries into a single phrasing list:
// for each match in rank order, the canonical question followed by its
// variants in array order. Duplicates across matches are kept.
func MatchedPhrasings(results []MatchResult) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.CanonicalQuestion)
		out = append(out, r.Variants...)
	}
	return out
}

// normalizeLexicalScore squashes an unbounded bleve score into (0,1).
func normalizeLexicalScore(score float64) float64 {
	if score <= 0 {
		return 0
	}
	return score / (score + 1)
}
