package chat

// Turn is a single role-tagged conversation turn as received from clients.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MatchResult is one ranked hit from the hybrid matcher. Similarity is in
// [0,1]; MatchType records which side of the search produced the hit.
type MatchResult struct {
	ID                string
	CanonicalQuestion string
	CanonicalAnswer   string
	Variants          []string
	Similarity        float64
	MatchType         string
	SourceDocument    string
}

// Match type tags.
const (
	MatchTypeVector  = "vector"
	MatchTypeLexical = "lexical"
	MatchTypeHybrid  = "hybrid"
)

// Source is a citation record attached to an assistant answer. Index is the
// 1-based position referenced by [n] markers in the answer text.
type Source struct {
	Index          int      `json:"index"`
	Question       string   `json:"question"`
	Variants       []string `json:"variants"`
	Similarity     float64  `json:"similarity"`
	MatchType      string   `json:"matchType"`
	SourceDocument string   `json:"source"`
}

// Debug carries per-request pipeline diagnostics surfaced to clients.
type Debug struct {
	IsCasual   bool      `json:"isCasual"`
	MatchCount int       `json:"matchCount"`
	Scores     []float64 `json:"scores,omitempty"`
	FromCache  bool      `json:"embeddingFromCache,omitempty"`
}

// Result is the final outcome of one chat turn.
type Result struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	Debug   Debug    `json:"debug"`
}
