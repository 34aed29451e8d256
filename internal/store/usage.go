package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
)

// UsageRecord is one answered question with its token accounting.
type UsageRecord struct {
	SessionID string
	Question  string
	Language  string
	Usage     core.TokenUsage
	AskedAt   time.Time
}

// RecordUsage appends one answered question to the usage history.
func (s *Store) RecordUsage(ctx context.Context, rec UsageRecord) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	askedAt := rec.AskedAt
	if askedAt.IsZero() {
		askedAt = time.Now()
	}

	_, err := s.DB.ExecContext(ctx, `INSERT INTO usage_history
		(session_id, question, language, prompt_tokens, completion_tokens, total_tokens, asked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Question, rec.Language,
		rec.Usage.PromptTokens, rec.Usage.CompletionTokens, rec.Usage.TotalTokens,
		askedAt.Unix())
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// SessionUsage returns the recorded history for a session, oldest first.
func (s *Store) SessionUsage(ctx context.Context, sessionID string, limit int) ([]UsageRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT session_id, question, language,
		prompt_tokens, completion_tokens, total_tokens, asked_at
		FROM usage_history WHERE session_id = ? ORDER BY asked_at DESC, id DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("load session usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []UsageRecord
	for rows.Next() {
		var (
			rec     UsageRecord
			askedAt int64
		)
		if err := rows.Scan(&rec.SessionID, &rec.Question, &rec.Language,
			&rec.Usage.PromptTokens, &rec.Usage.CompletionTokens,
			&rec.Usage.TotalTokens, &askedAt); err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		rec.AskedAt = time.Unix(askedAt, 0)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage records: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// TotalTokens sums the token usage recorded for a session.
func (s *Store) TotalTokens(ctx context.Context, sessionID string) (core.TokenUsage, error) {
	if s == nil || s.DB == nil {
		return core.TokenUsage{}, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var usage core.TokenUsage
	err := s.DB.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(prompt_tokens), 0),
		COALESCE(SUM(completion_tokens), 0),
		COALESCE(SUM(total_tokens), 0)
		FROM usage_history WHERE session_id = ?`, sessionID).
		Scan(&usage.PromptTokens, &usage.CompletionTokens, &usage.TotalTokens)
	if err != nil {
		return core.TokenUsage{}, fmt.Errorf("sum session usage: %w", err)
	}
	return usage, nil
}
