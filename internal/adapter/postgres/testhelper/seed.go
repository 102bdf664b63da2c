package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UniqueName returns a vocabulary name that does not collide across tests
// sharing the container.
func UniqueName(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// SeedVocabulary inserts a vocabulary row and its symbols in id order
// without going through the repository.
func SeedVocabulary(t *testing.T, pool *pgxpool.Pool, name string, symbols ...string) {
	t.Helper()
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		`INSERT INTO symbol_vocabularies (name, size) VALUES ($1, $2)`,
		name, len(symbols),
	)
	if err != nil {
		t.Fatalf("SeedVocabulary: insert vocabulary: %v", err)
	}

	for id, s := range symbols {
		_, err := pool.Exec(ctx,
			`INSERT INTO symbols (vocabulary_name, id, latex) VALUES ($1, $2, $3)`,
			name, id, s,
		)
		if err != nil {
			t.Fatalf("SeedVocabulary: insert symbol %q: %v", s, err)
		}
	}
}
