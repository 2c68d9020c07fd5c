package store_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tesvikportal/asistan/internal/store"
)

func TestStorePostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("ASISTAN_INTEGRATION") == "" {
		t.Skip("set ASISTAN_INTEGRATION=1 to run container-backed tests")
	}

	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("pgvector/pgvector:pg16"),
		tcPostgres.WithDatabase("asistan"),
		tcPostgres.WithUsername("asistan"),
		tcPostgres.WithPassword("asistan"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://asistan:asistan@%s:%s/asistan?sslmode=disable", host, port.Port())
	if err := applySchema(ctx, dsn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	defer st.DB.Close()

	t.Run("question variants", func(t *testing.T) { testQuestionVariants(ctx, t, st) })
	t.Run("sessions and messages", func(t *testing.T) { testSessions(ctx, t, st) })
}

func testQuestionVariants(ctx context.Context, t *testing.T, st *store.Store) {
	emb := func(x float32) []float32 {
		v := make([]float32, 4)
		v[0] = x
		v[1] = 1 - x
		return v
	}
	if err := st.UpsertQuestionVariant(ctx, store.QuestionVariantRecord{
		CanonicalQuestion: "Teşvik belgesi nasıl alınır?",
		CanonicalAnswer:   "E-TUYS üzerinden.",
		Variants:          []string{"belge başvurusu"},
		SourceDocument:    "rehber.pdf",
		Embedding:         emb(1),
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.UpsertQuestionVariant(ctx, store.QuestionVariantRecord{
		CanonicalQuestion: "KDV istisnası nedir?",
		CanonicalAnswer:   "Makine alımlarında uygulanır.",
		Embedding:         emb(0),
	}); err != nil {
		t.Fatalf("upsert second: %v", err)
	}

	// upsert on the same canonical question must refresh, not duplicate
	if err := st.UpsertQuestionVariant(ctx, store.QuestionVariantRecord{
		CanonicalQuestion: "Teşvik belgesi nasıl alınır?",
		CanonicalAnswer:   "E-TUYS portalı üzerinden başvurulur.",
		Embedding:         emb(1),
	}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	entries, err := st.ListQuestionVariants(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after re-upsert, got %d", len(entries))
	}

	hits, err := st.SearchQuestionVariants(ctx, emb(1), 5, 0.5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected a hit above threshold")
	}
	if hits[0].CanonicalQuestion != "Teşvik belgesi nasıl alınır?" {
		t.Fatalf("nearest entry should rank first: %+v", hits[0])
	}
	if hits[0].CanonicalAnswer != "E-TUYS portalı üzerinden başvurulur." {
		t.Fatalf("re-upsert did not refresh the answer: %q", hits[0].CanonicalAnswer)
	}
	for _, h := range hits {
		if h.Similarity < 0.5 {
			t.Fatalf("hit below threshold leaked through: %+v", h)
		}
	}
}

func testSessions(ctx context.Context, t *testing.T, st *store.Store) {
	email := fmt.Sprintf("u-%s@example.com", uuid.NewString())
	if err := st.CreateUser(ctx, email, "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	userID, _, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}

	sid := uuid.NewString()
	if _, err := st.CreateChatSession(ctx, sid, userID, "Yeni sohbet"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := st.UpdateChatSessionTitle(ctx, sid, userID, "Teşvik soruları"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := st.UpdateChatSessionTitle(ctx, uuid.NewString(), userID, "x"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("rename of unknown session should be ErrNoRows, got %v", err)
	}

	if _, err := st.AppendChatMessage(ctx, store.MessageRecord{
		SessionID: sid, Role: "user", Content: "merhaba",
	}); err != nil {
		t.Fatalf("append user message: %v", err)
	}
	if _, err := st.AppendChatMessage(ctx, store.MessageRecord{
		SessionID: sid, Role: "assistant", Content: "Merhaba!",
	}); err != nil {
		t.Fatalf("append assistant message: %v", err)
	}
	if _, err := st.AppendChatMessage(ctx, store.MessageRecord{
		SessionID: sid, Role: "system", Content: "x",
	}); err == nil {
		t.Fatalf("unknown role must be rejected")
	}

	msgs, err := st.ListChatMessages(ctx, sid, userID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if string(msgs[0].Sources) != "[]" {
		t.Fatalf("empty sources default to a JSON array: %q", msgs[0].Sources)
	}

	// ownership scoping: another user sees nothing
	otherEmail := fmt.Sprintf("u-%s@example.com", uuid.NewString())
	_ = st.CreateUser(ctx, otherEmail, "hash")
	otherID, _, _ := st.GetUserByEmail(ctx, otherEmail)
	if msgs, _ := st.ListChatMessages(ctx, sid, otherID); len(msgs) != 0 {
		t.Fatalf("messages leaked across users")
	}

	// retention: only sessions idle past the cutoff are swept
	n, err := st.DeleteChatSessionsBefore(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("retention sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("fresh session must survive the sweep, deleted %d", n)
	}
	if err := st.DeleteChatSession(ctx, sid, userID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := st.GetChatSession(ctx, sid, userID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("deleted session should be gone, got %v", err)
	}
}

func applySchema(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	schemaSQL := `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS users (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  email TEXT UNIQUE NOT NULL,
  password_hash TEXT NOT NULL,
  created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS question_variants (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  canonical_question TEXT NOT NULL UNIQUE,
  canonical_answer TEXT NOT NULL,
  variants TEXT[] NOT NULL DEFAULT '{}',
  source_document TEXT,
  embedding vector(4) NOT NULL,
  created_at TIMESTAMPTZ DEFAULT NOW(),
  updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS chat_sessions (
  id TEXT PRIMARY KEY,
  user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  created_at TIMESTAMPTZ DEFAULT NOW(),
  updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS chat_messages (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  session_id TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
  role TEXT NOT NULL CHECK (role IN ('user','assistant')),
  content TEXT NOT NULL,
  sources JSONB NOT NULL DEFAULT '[]',
  support_cards JSONB NOT NULL DEFAULT '[]',
  created_at TIMESTAMPTZ DEFAULT NOW()
);
`
	_, err = db.ExecContext(ctx, schemaSQL)
	return err
}
