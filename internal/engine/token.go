package engine

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces the correlation token stamped on each
// evaluation cycle. Implemented by UUIDv7Tokens (production) and
// FixedTokens (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Tokens generates time-sortable UUIDv7 cycle tokens, so tokens in
// logs and the history store sort by creation time.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Tokens struct{}

// Generate returns a new hyphenated UUIDv7 string. Panics if UUID
// generation fails, which does not happen in practice.
func (UUIDv7Tokens) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedTokens returns predetermined tokens in order, enabling
// deterministic traces in tests.
type FixedTokens struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedTokens creates a generator that hands out the given tokens in
// order and panics once they are exhausted, failing fast on test
// misconfiguration.
func NewFixedTokens(tokens ...string) *FixedTokens {
	return &FixedTokens{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedTokens: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
