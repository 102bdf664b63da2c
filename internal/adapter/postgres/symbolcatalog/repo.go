// Package symbolcatalog persists symbol vocabularies in PostgreSQL so every
// split of a dataset, and every training job, resolves labels the same way.
package symbolcatalog

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/symbolset/internal/adapter/postgres"
	"github.com/heartmarshall/symbolset/pkg/symbol"
)

const (
	vocabulariesTable = "symbol_vocabularies"
	symbolsTable      = "symbols"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides vocabulary persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	txm  *postgres.TxManager
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, txm: postgres.NewTxManager(pool)}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// SaveVocabulary replaces the vocabulary stored under meta.Name with v in a
// single transaction and returns the number of symbols written.
func (r *Repo) SaveVocabulary(ctx context.Context, meta symbol.VocabularyInfo, v symbol.Vocabulary) (int, error) {
	if meta.Name == "" {
		return 0, fmt.Errorf("symbolcatalog: %w: empty vocabulary name", symbol.ErrInvalidVocabulary)
	}
	if err := v.Validate(); err != nil {
		return 0, fmt.Errorf("symbolcatalog: %w", err)
	}

	var runID *uuid.UUID
	if meta.RunID != uuid.Nil {
		runID = &meta.RunID
	}

	var written int
	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		upsert, args, err := psql.Insert(vocabulariesTable).
			Columns("name", "size", "source_path", "run_id").
			Values(meta.Name, v.Len(), meta.SourcePath, runID).
			Suffix(`ON CONFLICT (name) DO UPDATE SET
				size = EXCLUDED.size,
				source_path = EXCLUDED.source_path,
				run_id = EXCLUDED.run_id,
				updated_at = now()`).
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}
		if _, err := q.Exec(ctx, upsert, args...); err != nil {
			return postgres.MapError(err, "vocabulary", meta.Name)
		}

		del, args, err := psql.Delete(symbolsTable).
			Where(squirrel.Eq{"vocabulary_name": meta.Name}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := q.Exec(ctx, del, args...); err != nil {
			return postgres.MapError(err, "vocabulary", meta.Name)
		}

		if v.Len() == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for id, s := range v.Symbols() {
			batch.Queue(
				`INSERT INTO symbols (vocabulary_name, id, latex) VALUES ($1, $2, $3)`,
				meta.Name, id, s,
			)
		}
		written, err = postgres.SendBatchExec(ctx, q, batch)
		if err != nil {
			return postgres.MapError(err, "vocabulary", meta.Name)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// DeleteVocabulary removes a vocabulary and its symbols.
// Returns symbol.ErrNotFound if no vocabulary has that name.
func (r *Repo) DeleteVocabulary(ctx context.Context, name string) error {
	sql, args, err := psql.Delete(vocabulariesTable).
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "vocabulary", name)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "vocabulary", name)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetVocabulary loads the vocabulary stored under name.
// Returns symbol.ErrNotFound if it does not exist and
// symbol.ErrInvalidVocabulary if the stored ids are not dense.
func (r *Repo) GetVocabulary(ctx context.Context, name string) (symbol.Vocabulary, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	meta, err := r.getMeta(ctx, q, name)
	if err != nil {
		return symbol.Vocabulary{}, err
	}

	sql, args, err := psql.Select("id", "latex").
		From(symbolsTable).
		Where(squirrel.Eq{"vocabulary_name": name}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return symbol.Vocabulary{}, fmt.Errorf("build select: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return symbol.Vocabulary{}, postgres.MapError(err, "vocabulary", name)
	}
	defer rows.Close()

	symbols := make([]string, 0, meta.Size)
	for rows.Next() {
		var (
			id    int
			latex string
		)
		if err := rows.Scan(&id, &latex); err != nil {
			return symbol.Vocabulary{}, postgres.MapError(err, "vocabulary", name)
		}
		if id != len(symbols) {
			return symbol.Vocabulary{}, fmt.Errorf("vocabulary %q: %w: id %d follows %d", name, symbol.ErrInvalidVocabulary, id, len(symbols)-1)
		}
		symbols = append(symbols, latex)
	}
	if err := rows.Err(); err != nil {
		return symbol.Vocabulary{}, postgres.MapError(err, "vocabulary", name)
	}

	if len(symbols) != meta.Size {
		return symbol.Vocabulary{}, fmt.Errorf("vocabulary %q: %w: %d symbols stored, size %d", name, symbol.ErrInvalidVocabulary, len(symbols), meta.Size)
	}

	v, err := symbol.NewVocabulary(symbols)
	if err != nil {
		return symbol.Vocabulary{}, fmt.Errorf("vocabulary %q: %w", name, err)
	}
	return v, nil
}

// GetMeta returns the metadata of the vocabulary stored under name.
func (r *Repo) GetMeta(ctx context.Context, name string) (symbol.VocabularyInfo, error) {
	return r.getMeta(ctx, postgres.QuerierFromCtx(ctx, r.pool), name)
}

// ListVocabularies returns the metadata of every stored vocabulary by name.
func (r *Repo) ListVocabularies(ctx context.Context) ([]symbol.VocabularyInfo, error) {
	sql, args, err := selectMeta().OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "vocabulary", "*")
	}
	defer rows.Close()

	var out []symbol.VocabularyInfo
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, postgres.MapError(err, "vocabulary", "*")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "vocabulary", "*")
	}
	return out, nil
}

func (r *Repo) getMeta(ctx context.Context, q postgres.Querier, name string) (symbol.VocabularyInfo, error) {
	sql, args, err := selectMeta().Where(squirrel.Eq{"name": name}).ToSql()
	if err != nil {
		return symbol.VocabularyInfo{}, fmt.Errorf("build select: %w", err)
	}

	m, err := scanMeta(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return symbol.VocabularyInfo{}, postgres.MapError(err, "vocabulary", name)
	}
	return m, nil
}

func selectMeta() squirrel.SelectBuilder {
	return psql.Select("name", "source_path", "run_id", "size", "updated_at").From(vocabulariesTable)
}

func scanMeta(row pgx.Row) (symbol.VocabularyInfo, error) {
	var (
		m     symbol.VocabularyInfo
		runID *uuid.UUID
	)
	if err := row.Scan(&m.Name, &m.SourcePath, &runID, &m.Size, &m.UpdatedAt); err != nil {
		return symbol.VocabularyInfo{}, err
	}
	if runID != nil {
		m.RunID = *runID
	}
	return m, nil
}
