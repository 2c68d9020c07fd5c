package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tesvikportal/asistan/provider"
)

// Embedder converts query text into a fixed-length vector.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Service runs one chat turn end to end: classify, embed, match, generate.
type Service struct {
	Embedder  Embedder
	Matcher   *Matcher
	Generator *Generator
	Cache     *EmbedCache
	Logger    *log.Logger
}

// NewService wires the pipeline. Cache may be nil.
func NewService(p provider.Provider, matcher *Matcher, cache *EmbedCache, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		Embedder:  p,
		Matcher:   matcher,
		Generator: &Generator{LLM: p},
		Cache:     cache,
		Logger:    logger,
	}
}

// Answer processes the full message history; the last turn must be from the
// user. Upstream failures are fatal for the turn and propagate to the caller.
func (s *Service) Answer(ctx context.Context, messages []Turn) (Result, error) {
	if len(messages) == 0 {
		return Result{}, fmt.Errorf("messages required")
	}
	last := messages[len(messages)-1]
	if last.Role != "user" || strings.TrimSpace(last.Content) == "" {
		return Result{}, fmt.Errorf("last message must be a non-empty user turn")
	}
	history := messages[:len(messages)-1]
	query := last.Content

	if IsCasual(query) {
		answer, err := s.Generator.Generate(ctx, append(append([]Turn{}, history...), last), nil, nil)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Answer:  ApplyBadge(answer),
			Sources: []Source{},
			Debug:   Debug{IsCasual: true},
		}, nil
	}

	vector, fromCache := s.Cache.Get(ctx, query)
	if !fromCache {
		vecs, err := s.Embedder.CreateEmbedding(ctx, []string{query})
		if err != nil {
			return Result{}, fmt.Errorf("embed query: %w", err)
		}
		if len(vecs) == 0 || len(vecs[0]) == 0 {
			return Result{}, fmt.Errorf("embedding provider returned no vector")
		}
		vector = vecs[0]
		s.Cache.Put(ctx, query, vector)
	}

	matches, err := s.Matcher.Match(ctx, query, vector)
	if err != nil {
		return Result{}, err
	}
	if len(matches) == 0 {
		s.Logger.Printf("no matches for query (%d chars)", len(query))
		return Result{
			Answer:  NoInformationAnswer,
			Sources: []Source{},
			Debug:   Debug{MatchCount: 0, FromCache: fromCache},
		}, nil
	}

	phrasings := MatchedPhrasings(matches)
	answer, err := s.Generator.Generate(ctx, append(append([]Turn{}, history...), last), matches, phrasings)
	if err != nil {
		return Result{}, err
	}

	sources := make([]Source, 0, len(matches))
	scores := make([]float64, 0, len(matches))
	for i, m := range matches {
		sources = append(sources, Source{
			Index:          i + 1,
			Question:       m.CanonicalQuestion,
			Variants:       m.Variants,
			Similarity:     m.Similarity,
			MatchType:      m.MatchType,
			SourceDocument: m.SourceDocument,
		})
		scores = append(scores, m.Similarity)
	}

	return Result{
		Answer:  ApplyBadge(answer),
		Sources: sources,
		Debug:   Debug{MatchCount: len(matches), Scores: scores, FromCache: fromCache},
	}, nil
}
