package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/roach88/godseed/internal/domain"
)

// digestDomain separates save digests from any other hash of the same bytes.
const digestDomain = "godseed/save/v1"

// Digest returns the content digest stored alongside a save blob.
// Format: hex(SHA256(domain + 0x00 + blob)).
func Digest(blob []byte) string {
	h := sha256.New()
	h.Write([]byte(digestDomain))
	h.Write([]byte{0x00})
	h.Write(blob)
	return hex.EncodeToString(h.Sum(nil))
}

// WriteSave stores blob in slot. A blob identical to the stored one is not
// rewritten; changed reports whether a write happened.
func (s *Store) WriteSave(ctx context.Context, slot domain.Slot, blob []byte) (changed bool, err error) {
	if _, err := domain.ParseSlot(string(slot)); err != nil {
		return false, fmt.Errorf("write save: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO saves (slot, blob, digest, seq, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(slot) DO UPDATE SET
			blob = excluded.blob,
			digest = excluded.digest,
			seq = saves.seq + 1,
			updated_at = excluded.updated_at
		WHERE saves.digest <> excluded.digest
	`, string(slot), string(blob), Digest(blob), s.now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("write save: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write save: %w", err)
	}
	return n > 0, nil
}

// DeleteSave removes the save in slot. Deleting an empty slot is not an
// error. The scoreboard is kept.
func (s *Store) DeleteSave(ctx context.Context, slot domain.Slot) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, string(slot)); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}

// AppendScore records a finished run.
func (s *Store) AppendScore(ctx context.Context, slot domain.Slot, ending domain.Ending, score float64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scores (slot, ending, score, ended_at)
		VALUES (?, ?, ?, ?)
	`, string(slot), string(ending), score, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("append score: %w", err)
	}
	return nil
}
