package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/godseed/internal/domain"
)

// ErrSlotNotFound is returned when a slot holds no save.
var ErrSlotNotFound = errors.New("save slot is empty")

// SaveInfo describes a stored save without its blob.
type SaveInfo struct {
	Slot      domain.Slot `json:"slot"`
	Seq       int64       `json:"seq"`
	Digest    string      `json:"digest"`
	Size      int         `json:"size"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ScoreRow is one finished run.
type ScoreRow struct {
	ID      int64         `json:"id"`
	Slot    domain.Slot   `json:"slot"`
	Ending  domain.Ending `json:"ending"`
	Score   float64       `json:"score"`
	EndedAt time.Time     `json:"endedAt"`
}

// ReadSave returns the blob stored in slot, or ErrSlotNotFound.
func (s *Store) ReadSave(ctx context.Context, slot domain.Slot) ([]byte, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM saves WHERE slot = ?`, string(slot)).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read save %s: %w", slot, ErrSlotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read save %s: %w", slot, err)
	}
	return []byte(blob), nil
}

// ListSaves describes every occupied slot, ordered by slot name.
// Returns an empty slice (not nil) when no slot is occupied.
func (s *Store) ListSaves(ctx context.Context) ([]SaveInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slot, seq, digest, length(blob), updated_at
		FROM saves
		ORDER BY slot COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query saves: %w", err)
	}
	defer rows.Close()

	infos := []SaveInfo{}
	for rows.Next() {
		var (
			info    SaveInfo
			slot    string
			updated int64
		)
		if err := rows.Scan(&slot, &info.Seq, &info.Digest, &info.Size, &updated); err != nil {
			return nil, fmt.Errorf("scan save: %w", err)
		}
		info.Slot = domain.Slot(slot)
		info.UpdatedAt = time.UnixMilli(updated).UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saves: %w", err)
	}
	return infos, nil
}

// Scores returns the last limit runs recorded for slot, oldest first.
// A limit of zero or less returns every run.
func (s *Store) Scores(ctx context.Context, slot domain.Slot, limit int) ([]ScoreRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slot, ending, score, ended_at FROM (
			SELECT id, slot, ending, score, ended_at
			FROM scores
			WHERE slot = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC
	`, string(slot), limit)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	out := []ScoreRow{}
	for rows.Next() {
		var (
			r            ScoreRow
			slot, ending string
			ended        int64
		)
		if err := rows.Scan(&r.ID, &slot, &ending, &r.Score, &ended); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		r.Slot = domain.Slot(slot)
		r.Ending = domain.Ending(ending)
		r.EndedAt = time.UnixMilli(ended).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return out, nil
}
