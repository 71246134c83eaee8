package store

import (
	"context"
	"fmt"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/engine"
)

// SlotSaver adapts a Store to engine.Persister and engine.ScoreRecorder.
type SlotSaver struct {
	store *Store
}

var (
	_ engine.Persister     = (*SlotSaver)(nil)
	_ engine.ScoreRecorder = (*SlotSaver)(nil)
)

// NewSlotSaver wraps s.
func NewSlotSaver(s *Store) *SlotSaver {
	return &SlotSaver{store: s}
}

// Save writes blob to slot.
func (p *SlotSaver) Save(ctx context.Context, slot domain.Slot, blob []byte) error {
	_, err := p.store.WriteSave(ctx, slot, blob)
	return err
}

// Load reads the blob in slot.
func (p *SlotSaver) Load(ctx context.Context, slot domain.Slot) ([]byte, error) {
	return p.store.ReadSave(ctx, slot)
}

// AppendScore records a finished run.
func (p *SlotSaver) AppendScore(ctx context.Context, slot domain.Slot, ending engine.Ending) error {
	if err := p.store.AppendScore(ctx, slot, ending.Type, ending.Score, ending.Timestamp); err != nil {
		return fmt.Errorf("slot %s: %w", slot, err)
	}
	return nil
}
