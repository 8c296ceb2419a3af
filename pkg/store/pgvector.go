// Package store persists chunk embeddings in Postgres with the
// pgvector extension and serves nearest-neighbor queries over them.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/mkarlin/docquery/internal/models"
)

type VectorStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	BatchSize  int
}

type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "doc_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	// BIGSERIAL gives every chunk a monotonically increasing id unique
	// within the collection; ids are never reused even across rebuilds.
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			filename TEXT NOT NULL,
			page INTEGER NOT NULL,
			chunk_index INTEGER NOT NULL,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)

	if _, err = vs.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	if _, err = vs.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Upsert inserts the entries inside one transaction. Either every
// entry lands or none do, so a failed embedding batch never leaves
// partial ids behind. Existing rows are untouched.
func (vs *VectorStore) Upsert(ctx context.Context, entries []models.IndexEntry) error {
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := vs.insertAll(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceAll atomically swaps the whole collection: existing rows are
// deleted and the new entries inserted in the same transaction, so an
// interrupted rebuild leaves either the old generation or the new one,
// never a mixture.
func (vs *VectorStore) ReplaceAll(ctx context.Context, entries []models.IndexEntry) error {
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", vs.config.TableName)); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}

	if err := vs.insertAll(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceFile swaps one file's entries in a single transaction: the
// file's existing ids are deleted and the new entries inserted
// together, so a failed re-ingest keeps the previous generation
// intact instead of leaving the file half-indexed.
func (vs *VectorStore) ReplaceFile(ctx context.Context, filename string, entries []models.IndexEntry) error {
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	selectIDs := fmt.Sprintf("SELECT id FROM %s WHERE filename = $1", vs.config.TableName)
	rows, err := tx.Query(ctx, selectIDs, filename)
	if err != nil {
		return fmt.Errorf("failed to query chunk ids: %w", err)
	}
	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan id: %w", err)
		}
		stale = append(stale, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to query chunk ids: %w", err)
	}

	if len(stale) > 0 {
		deleteStmt := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", vs.config.TableName)
		if _, err := tx.Exec(ctx, deleteStmt, stale); err != nil {
			return fmt.Errorf("failed to delete stale chunks: %w", err)
		}
	}

	if err := vs.insertAll(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteByIDs removes the given entries. Unknown ids are ignored.
func (vs *VectorStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, stmt, ids); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// IDsForFile lists the ids of every entry belonging to one source file,
// in insertion order.
func (vs *VectorStore) IDsForFile(ctx context.Context, filename string) ([]int64, error) {
	stmt := fmt.Sprintf("SELECT id FROM %s WHERE filename = $1 ORDER BY id", vs.config.TableName)
	rows, err := vs.pool.Query(ctx, stmt, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Clear removes every entry. A no-op on an empty collection.
func (vs *VectorStore) Clear(ctx context.Context) error {
	stmt := fmt.Sprintf("DELETE FROM %s", vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	return nil
}

func (vs *VectorStore) insertAll(ctx context.Context, tx pgx.Tx, entries []models.IndexEntry) error {
	stmt := fmt.Sprintf(`
		INSERT INTO %s (content, filename, page, chunk_index, embedding)
		VALUES ($1, $2, $3, $4, $5)`,
		vs.config.TableName)

	for _, e := range entries {
		_, err := tx.Exec(ctx, stmt,
			e.Text,
			e.Filename,
			e.Page,
			e.ChunkIndex,
			pgvector.NewVector(e.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s/%d/%d: %w",
				e.Filename, e.Page, e.ChunkIndex, err)
		}
	}
	return nil
}

// Search returns up to k entries ranked by descending cosine
// similarity, ties broken by insertion order (lower id first). An
// empty collection yields an empty result set, not an error.
func (vs *VectorStore) Search(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error) {
	query := fmt.Sprintf(`
		SELECT content, filename, page, chunk_index
		FROM %s
		ORDER BY embedding <=> $1, id ASC
		LIMIT $2`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.Text, &r.Filename, &r.Page, &r.ChunkIndex); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.Rank = len(results)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Count reports the number of stored entries.
func (vs *VectorStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := vs.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", vs.config.TableName)).Scan(&n)
	return n, err
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}
