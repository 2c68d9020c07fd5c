package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

type Store struct {
	DB *sql.DB
}

// DefaultEmbeddingDimensions indicates the expected length of semantic vectors stored in pgvector columns.
const DefaultEmbeddingDimensions = 1536

// QuestionVariantRecord is a canonical Q&A entry together with its alternate
// phrasings and the embedding of the canonical question.
type QuestionVariantRecord struct {
	ID                string
	CanonicalQuestion string
	CanonicalAnswer   string
	Variants          []string
	SourceDocument    string
	Embedding         []float32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// QuestionVariantHit is a vector-similarity hit against question_variants.
type QuestionVariantHit struct {
	ID                string
	CanonicalQuestion string
	CanonicalAnswer   string
	Variants          []string
	SourceDocument    string
	Similarity        float64
}

// SessionRecord is a persisted chat session row.
type SessionRecord struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MessageRecord is a persisted chat message row. Sources and SupportCards are
// stored as JSON documents; both may be empty.
type MessageRecord struct {
	ID           string
	SessionID    string
	Role         string
	Content      string
	Sources      json.RawMessage
	SupportCards json.RawMessage
	CreatedAt    time.Time
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// User operations
func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

// UpsertQuestionVariant stores or refreshes a canonical Q&A entry keyed by the
// canonical question text.
func (s *Store) UpsertQuestionVariant(ctx context.Context, rec QuestionVariantRecord) error {
	if strings.TrimSpace(rec.CanonicalQuestion) == "" {
		return fmt.Errorf("canonical_question required")
	}
	if strings.TrimSpace(rec.CanonicalAnswer) == "" {
		return fmt.Errorf("canonical_answer required")
	}
	if len(rec.Embedding) == 0 {
		return fmt.Errorf("embedding vector required")
	}
	vectorLiteral, err := encodeVectorLiteral(rec.Embedding)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO question_variants (canonical_question, canonical_answer, variants, source_document, embedding, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5::vector,NOW(),NOW())
ON CONFLICT (canonical_question) DO UPDATE SET
  canonical_answer = EXCLUDED.canonical_answer,
  variants         = EXCLUDED.variants,
  source_document  = EXCLUDED.source_document,
  embedding        = EXCLUDED.embedding,
  updated_at       = NOW();
`, rec.CanonicalQuestion, rec.CanonicalAnswer, pq.Array(rec.Variants), rec.SourceDocument, vectorLiteral)
	return err
}

// ListQuestionVariants returns the full corpus, used to build the lexical index.
func (s *Store) ListQuestionVariants(ctx context.Context) ([]QuestionVariantRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, canonical_question, canonical_answer, variants, source_document, created_at, updated_at
FROM question_variants
ORDER BY created_at
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []QuestionVariantRecord
	for rows.Next() {
		var rec QuestionVariantRecord
		if err := rows.Scan(&rec.ID, &rec.CanonicalQuestion, &rec.CanonicalAnswer, pq.Array(&rec.Variants), &rec.SourceDocument, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SearchQuestionVariants returns the closest entries for the supplied query
// vector. Similarity is cosine similarity (1 - pgvector cosine distance);
// rows below the threshold are dropped.
func (s *Store) SearchQuestionVariants(ctx context.Context, vector []float32, topK int, threshold float64) ([]QuestionVariantHit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector must not be empty")
	}
	if topK <= 0 {
		topK = 5
	}
	vecLiteral, err := encodeVectorLiteral(vector)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, canonical_question, canonical_answer, variants, source_document, 1 - (embedding <=> $1::vector) AS similarity
FROM question_variants
ORDER BY embedding <=> $1::vector
LIMIT $2
`, vecLiteral, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []QuestionVariantHit
	for rows.Next() {
		var hit QuestionVariantHit
		if err := rows.Scan(&hit.ID, &hit.CanonicalQuestion, &hit.CanonicalAnswer, pq.Array(&hit.Variants), &hit.SourceDocument, &hit.Similarity); err != nil {
			return nil, err
		}
		if threshold > 0 && hit.Similarity < threshold {
			continue
		}
		results = append(results, hit)
	}
	return results, rows.Err()
}

// Session operations

func (s *Store) CreateChatSession(ctx context.Context, id, userID, title string) (SessionRecord, error) {
	var rec SessionRecord
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at)
VALUES ($1,$2,$3,NOW(),NOW())
RETURNING id, user_id, title, created_at, updated_at
`, id, userID, title).Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func (s *Store) ListChatSessions(ctx context.Context, userID string) ([]SessionRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, user_id, title, created_at, updated_at
FROM chat_sessions
WHERE user_id=$1
ORDER BY updated_at DESC
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) GetChatSession(ctx context.Context, id, userID string) (SessionRecord, error) {
	var rec SessionRecord
	err := s.DB.QueryRowContext(ctx, `
SELECT id, user_id, title, created_at, updated_at
FROM chat_sessions
WHERE id=$1 AND user_id=$2
`, id, userID).Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func (s *Store) UpdateChatSessionTitle(ctx context.Context, id, userID, title string) error {
	res, err := s.DB.ExecContext(ctx, `
UPDATE chat_sessions SET title=$3, updated_at=NOW() WHERE id=$1 AND user_id=$2
`, id, userID, title)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// DeleteChatSession removes a session; messages cascade via FK.
func (s *Store) DeleteChatSession(ctx context.Context, id, userID string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// DeleteChatSessionsBefore removes sessions not touched since the cutoff.
// Used by the retention sweep.
func (s *Store) DeleteChatSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM chat_sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Message operations

func (s *Store) AppendChatMessage(ctx context.Context, rec MessageRecord) (string, error) {
	if rec.SessionID == "" {
		return "", fmt.Errorf("session_id required")
	}
	if rec.Role != "user" && rec.Role != "assistant" {
		return "", fmt.Errorf("unknown role: %s", rec.Role)
	}
	sources := rec.Sources
	if len(sources) == 0 {
		sources = json.RawMessage("[]")
	}
	cards := rec.SupportCards
	if len(cards) == 0 {
		cards = json.RawMessage("[]")
	}
	var id string
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO chat_messages (session_id, role, content, sources, support_cards)
VALUES ($1,$2,$3,$4,$5)
RETURNING id
`, rec.SessionID, rec.Role, rec.Content, []byte(sources), []byte(cards)).Scan(&id)
	if err != nil {
		return "", err
	}
	_, err = s.DB.ExecContext(ctx, `UPDATE chat_sessions SET updated_at=NOW() WHERE id=$1`, rec.SessionID)
	return id, err
}

// ListChatMessages returns the conversation in creation order.
func (s *Store) ListChatMessages(ctx context.Context, sessionID, userID string) ([]MessageRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT m.id, m.session_id, m.role, m.content, m.sources, m.support_cards, m.created_at
FROM chat_messages m
JOIN chat_sessions s ON s.id = m.session_id
WHERE m.session_id=$1 AND s.user_id=$2
ORDER BY m.created_at
`, sessionID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MessageRecord
	for rows.Next() {
		var (
			rec     MessageRecord
			sources []byte
			cards   []byte
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Role, &rec.Content, &sources, &cards, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Sources = json.RawMessage(sources)
		rec.SupportCards = json.RawMessage(cards)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("vector must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}

func decodeVectorLiteral(lit string) ([]float32, error) {
	lit = strings.TrimSpace(lit)
	if lit == "" {
		return nil, fmt.Errorf("empty vector literal")
	}
	lit = strings.TrimPrefix(lit, "[")
	lit = strings.TrimSuffix(lit, "]")
	parts := strings.Split(lit, ",")
	vec := make([]float32, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector value %q: %w", value, err)
		}
		vec = append(vec, float32(f))
	}
	return vec, nil
}
