package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nexchat/internal/app/db"
	"nexchat/internal/pkg/errs"
)

// PGStore is the PostgreSQL-backed channel store used in production.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore returns a Store over the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Create implements Store.
func (s *PGStore) Create(ctx context.Context, code string, doc json.RawMessage) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO channels (code, document) VALUES ($1, $2)`,
		code, doc,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return errs.NewError(errs.ErrChannelExists)
		}
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *PGStore) Get(ctx context.Context, code string) (json.RawMessage, error) {
	var doc json.RawMessage
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM channels WHERE code = $1`,
		code,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load channel: %w", err)
	}
	return doc, nil
}

// Replace implements Store.
func (s *PGStore) Replace(ctx context.Context, code string, doc json.RawMessage) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE channels SET document = $2, updated_at = now() WHERE code = $1`,
		code, doc,
	)
	if err != nil {
		return fmt.Errorf("failed to replace channel document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewError(errs.ErrChannelNotFound)
	}
	return nil
}
