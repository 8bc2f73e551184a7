package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/port/docstore"
)

// Store implements docstore.Backend over the documents table. The merge
// semantics of Set (top-level field merge, last writer wins) are expressed
// in SQL so the timestamp is server-assigned and writes stay atomic.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Get returns the document at path, or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, path string) (*docstore.Document, error) {
	var doc docstore.Document
	err := s.pool.QueryRow(ctx,
		`SELECT path, data, updated_at, modified_by FROM documents WHERE path = $1`, path,
	).Scan(&doc.Path, &doc.Data, &doc.UpdatedAt, &doc.ModifiedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get %s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return &doc, nil
}

// Set merge-writes data at path and returns the stamped document.
func (s *Store) Set(ctx context.Context, path string, data json.RawMessage, modifiedBy string) (*docstore.Document, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("set %s: invalid document payload", path)
	}

	var doc docstore.Document
	err := s.pool.QueryRow(ctx,
		`INSERT INTO documents (path, data, modified_by) VALUES ($1, $2, $3)
		 ON CONFLICT (path) DO UPDATE
		 SET data = documents.data || EXCLUDED.data,
		     updated_at = now(),
		     modified_by = EXCLUDED.modified_by
		 RETURNING path, data, updated_at, modified_by`,
		path, data, modifiedBy,
	).Scan(&doc.Path, &doc.Data, &doc.UpdatedAt, &doc.ModifiedBy)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", path, err)
	}
	return &doc, nil
}

// Delete removes the document at path. Missing documents are a no-op.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE path = $1`, path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// List returns all documents under prefix, path-ordered.
func (s *Store) List(ctx context.Context, prefix string) ([]docstore.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT path, data, updated_at, modified_by FROM documents
		 WHERE path LIKE $1 || '%' ORDER BY path ASC`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var doc docstore.Document
		if err := rows.Scan(&doc.Path, &doc.Data, &doc.UpdatedAt, &doc.ModifiedBy); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
