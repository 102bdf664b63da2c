//go:build integration

package symbolcatalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/symbolset/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/symbolset/pkg/symbol"
)

func mustVocabulary(t *testing.T, symbols ...string) symbol.Vocabulary {
	t.Helper()
	v, err := symbol.NewVocabulary(symbols)
	require.NoError(t, err)
	return v
}

func TestRepo_SaveAndGet(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := New(pool)
	ctx := context.Background()

	name := testhelper.UniqueName("hasy")
	runID := uuid.New()
	v := mustVocabulary(t, `\alpha`, `\beta`, `A`, `\sum`)

	n, err := repo.SaveVocabulary(ctx, symbol.VocabularyInfo{Name: name, SourcePath: "symbols.csv", RunID: runID}, v)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := repo.GetVocabulary(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	meta, err := repo.GetMeta(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 4, meta.Size)
	assert.Equal(t, runID, meta.RunID)
	assert.Equal(t, "symbols.csv", meta.SourcePath)
}

func TestRepo_SaveReplaces(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := New(pool)
	ctx := context.Background()
	name := testhelper.UniqueName("replace")

	_, err := repo.SaveVocabulary(ctx, symbol.VocabularyInfo{Name: name}, mustVocabulary(t, "a", "b", "c"))
	require.NoError(t, err)

	smaller := mustVocabulary(t, "c", "a")
	_, err = repo.SaveVocabulary(ctx, symbol.VocabularyInfo{Name: name}, smaller)
	require.NoError(t, err)

	got, err := repo.GetVocabulary(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, smaller, got)

	meta, err := repo.GetMeta(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, meta.RunID)
}

func TestRepo_SaveEmpty(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := New(pool)
	ctx := context.Background()
	name := testhelper.UniqueName("empty")

	n, err := repo.SaveVocabulary(ctx, symbol.VocabularyInfo{Name: name}, mustVocabulary(t))
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := repo.GetVocabulary(ctx, name)
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestRepo_SaveRejectsEmptyName(t *testing.T) {
	pool := testhelper.SetupTestDB(t)

	_, err := New(pool).SaveVocabulary(context.Background(), symbol.VocabularyInfo{}, mustVocabulary(t, "a"))
	require.ErrorIs(t, err, symbol.ErrInvalidVocabulary)
}

func TestRepo_GetNotFound(t *testing.T) {
	pool := testhelper.SetupTestDB(t)

	_, err := New(pool).GetVocabulary(context.Background(), testhelper.UniqueName("missing"))
	require.ErrorIs(t, err, symbol.ErrNotFound)
}

func TestRepo_GetDetectsGap(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	name := testhelper.UniqueName("gap")

	testhelper.SeedVocabulary(t, pool, name, "a", "b", "c")
	_, err := pool.Exec(ctx, `DELETE FROM symbols WHERE vocabulary_name = $1 AND id = 1`, name)
	require.NoError(t, err)

	_, err = New(pool).GetVocabulary(ctx, name)
	require.ErrorIs(t, err, symbol.ErrInvalidVocabulary)
}

func TestRepo_ListAndDelete(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := New(pool)
	ctx := context.Background()
	name := testhelper.UniqueName("list")

	_, err := repo.SaveVocabulary(ctx, symbol.VocabularyInfo{Name: name}, mustVocabulary(t, "x"))
	require.NoError(t, err)

	all, err := repo.ListVocabularies(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, m := range all {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, name)

	require.NoError(t, repo.DeleteVocabulary(ctx, name))
	require.ErrorIs(t, repo.DeleteVocabulary(ctx, name), symbol.ErrNotFound)

	_, err = repo.GetVocabulary(ctx, name)
	require.ErrorIs(t, err, symbol.ErrNotFound)
}
