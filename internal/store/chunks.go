package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
)

// StoredChunk pairs a documentation chunk with its embedding vector.
type StoredChunk struct {
	Chunk     core.Chunk
	Embedding []float64
}

// ReplaceChunks swaps the indexed chunks for a library inside one transaction.
func (s *Store) ReplaceChunks(ctx context.Context, library string, chunks []StoredChunk) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_chunks WHERE library = ?`, library); err != nil {
		return fmt.Errorf("clear chunks for %s: %w", library, err)
	}

	now := time.Now().Unix()
	for _, sc := range chunks {
		embedding, err := json.Marshal(sc.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO doc_chunks
			(library, source, category, chunk_index, content, embedding, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sc.Chunk.Library, sc.Chunk.Source, sc.Chunk.Category,
			sc.Chunk.Index, sc.Chunk.Content, string(embedding), now)
		if err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk transaction: %w", err)
	}
	return nil
}

// LoadChunks returns every stored chunk with its embedding.
func (s *Store) LoadChunks(ctx context.Context) ([]StoredChunk, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, library, source, category,
		chunk_index, content, embedding FROM doc_chunks ORDER BY library, source, chunk_index`)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StoredChunk
	for rows.Next() {
		var (
			id       int64
			sc       StoredChunk
			category sql.NullString
			raw      string
		)
		if err := rows.Scan(&id, &sc.Chunk.Library, &sc.Chunk.Source,
			&category, &sc.Chunk.Index, &sc.Chunk.Content, &raw); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		sc.Chunk.ID = strconv.FormatInt(id, 10)
		sc.Chunk.Category = category.String
		if err := json.Unmarshal([]byte(raw), &sc.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding for chunk %d: %w", id, err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

// CountChunks returns per-library chunk counts.
func (s *Store) CountChunks(ctx context.Context) (map[string]int, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT library, COUNT(*) FROM doc_chunks GROUP BY library`)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			library string
			n       int
		)
		if err := rows.Scan(&library, &n); err != nil {
			return nil, fmt.Errorf("scan chunk count: %w", err)
		}
		counts[library] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk counts: %w", err)
	}
	return counts, nil
}

// SetIndexMeta records a key/value pair describing the built index.
func (s *Store) SetIndexMeta(ctx context.Context, key, value string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx, `INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set index meta %s: %w", key, err)
	}
	return nil
}

// IndexMeta reads a metadata value, returning "" when absent.
func (s *Store) IndexMeta(ctx context.Context, key string) (string, error) {
	if s == nil || s.DB == nil {
		return "", errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read index meta %s: %w", key, err)
	}
	return value, nil
}
