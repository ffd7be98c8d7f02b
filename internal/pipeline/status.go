package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

// Snapshot is the console-facing processing status, serialized as JSON into
// the current_processing_status setting after every stage transition. The
// per-contact fields and stage come from model.ProcessingStatus; the rest is
// batch progress.
type Snapshot struct {
	model.ProcessingStatus
	State     string    `json:"state"` // idle, processing, stopping, done
	Index     int       `json:"index,omitempty"`
	Total     int       `json:"total,omitempty"`
	Submitted int       `json:"submitted"`
	Failed    int       `json:"failed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// publish writes the snapshot; the console reads it on its own cadence, so
// a lost write only costs staleness.
func publish(ctx context.Context, st store.Store, snap Snapshot) {
	snap.UpdatedAt = time.Now().UTC()
	blob, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := st.SetSetting(ctx, model.KeyCurrentProcessingStatus, string(blob)); err != nil {
		zap.L().Warn("pipeline: publish status", zap.Error(err))
	}
}

// ReadSnapshot decodes the stored processing status for the console.
func ReadSnapshot(ctx context.Context, st store.Store) (*Snapshot, error) {
	raw, err := st.GetSetting(ctx, model.KeyCurrentProcessingStatus)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return &Snapshot{State: "idle"}, nil
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
