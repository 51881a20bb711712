package scanning

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PersistedSnapshot is a durable projection of a Session written at each
// phase-boundary transition. It carries just enough to resume the workflow
// after process termination; everything past phase 1 lives on the backend
// and is re-fetched by pending item id when needed.
type PersistedSnapshot struct {
	sessionID         uuid.UUID
	barcode           string
	codeFormat        CodeFormat
	manualCode        string
	step              SessionStep
	pendingItemID     string
	storageLocationID string
	startedAt         time.Time
	checkpointAt      time.Time
}

// NewSnapshot captures the resumable state of a session at a checkpoint.
func NewSnapshot(s *Session, checkpointAt time.Time) PersistedSnapshot {
	return PersistedSnapshot{
		sessionID:         s.SessionID(),
		barcode:           s.Barcode(),
		codeFormat:        s.CodeFormat(),
		manualCode:        s.ManualCode(),
		step:              s.Step(),
		pendingItemID:     s.PendingItemID(),
		storageLocationID: s.StorageLocationID(),
		startedAt:         s.StartedAt(),
		checkpointAt:      checkpointAt,
	}
}

// ReconstructSnapshot creates a PersistedSnapshot from persisted data.
// This should only be used by repositories when reconstructing from storage.
func ReconstructSnapshot(
	sessionID uuid.UUID,
	barcode string,
	codeFormat CodeFormat,
	manualCode string,
	step SessionStep,
	pendingItemID string,
	storageLocationID string,
	startedAt time.Time,
	checkpointAt time.Time,
) PersistedSnapshot {
	return PersistedSnapshot{
		sessionID:         sessionID,
		barcode:           barcode,
		codeFormat:        codeFormat,
		manualCode:        manualCode,
		step:              step,
		pendingItemID:     pendingItemID,
		storageLocationID: storageLocationID,
		startedAt:         startedAt,
		checkpointAt:      checkpointAt,
	}
}

// SessionID returns the identifier of the snapshotted session.
func (p PersistedSnapshot) SessionID() uuid.UUID { return p.sessionID }

// Barcode returns the code value captured at detection time.
func (p PersistedSnapshot) Barcode() string { return p.barcode }

// CodeFormat returns the symbology of the detected code.
func (p PersistedSnapshot) CodeFormat() CodeFormat { return p.codeFormat }

// ManualCode returns the manually entered PLU, empty if none.
func (p PersistedSnapshot) ManualCode() string { return p.manualCode }

// Step returns the step the session was at when checkpointed.
func (p PersistedSnapshot) Step() SessionStep { return p.step }

// PendingItemID returns the backend-assigned pending record id, empty before
// phase 1 succeeded.
func (p PersistedSnapshot) PendingItemID() string { return p.pendingItemID }

// StorageLocationID returns the chosen storage location, empty before selection.
func (p PersistedSnapshot) StorageLocationID() string { return p.storageLocationID }

// StartedAt returns the time the snapshotted session was created.
func (p PersistedSnapshot) StartedAt() time.Time { return p.startedAt }

// CheckpointAt returns the time the snapshot was written.
func (p PersistedSnapshot) CheckpointAt() time.Time { return p.checkpointAt }

// IsResumable reports whether the snapshot describes a session worth
// resuming: a non-terminal step checkpointed within the staleness threshold.
// Stale snapshots are discarded so abandoned scans are not resurrected
// indefinitely.
func (p PersistedSnapshot) IsResumable(now time.Time, staleAfter time.Duration) bool {
	if p.step.IsTerminal() || p.step == StepUnspecified {
		return false
	}
	return now.Sub(p.checkpointAt) <= staleAfter
}

// RestoreSession reconstructs a Session from the snapshot. Resumption
// invariants are re-checked: a session at or past expiration capture must
// carry a pending item id.
func (p PersistedSnapshot) RestoreSession() (*Session, error) {
	if p.step.AtOrPast(StepCapturingExpiration) && p.pendingItemID == "" {
		return nil, fmt.Errorf("snapshot for session %s at step %s has no pending item id", p.sessionID, p.step)
	}

	return ReconstructSession(
		p.sessionID,
		p.barcode,
		p.codeFormat,
		p.manualCode,
		p.storageLocationID,
		p.pendingItemID,
		p.step,
		p.startedAt,
	), nil
}

// MarshalJSON serializes the PersistedSnapshot into a JSON byte array.
func (p PersistedSnapshot) MarshalJSON() ([]byte, error) {
	// Define an inner type to avoid infinite recursion of MarshalJSON.
	type snapshotDTO struct {
		SessionID         string    `json:"session_id"`
		Barcode           string    `json:"barcode"`
		CodeFormat        string    `json:"code_format"`
		ManualCode        string    `json:"manual_code,omitempty"`
		Step              string    `json:"step"`
		PendingItemID     string    `json:"pending_item_id,omitempty"`
		StorageLocationID string    `json:"storage_location_id,omitempty"`
		StartedAt         time.Time `json:"started_at"`
		CheckpointAt      time.Time `json:"checkpoint_at"`
	}

	dto := snapshotDTO{
		SessionID:         p.sessionID.String(),
		Barcode:           p.barcode,
		CodeFormat:        p.codeFormat.String(),
		ManualCode:        p.manualCode,
		Step:              p.step.String(),
		PendingItemID:     p.pendingItemID,
		StorageLocationID: p.storageLocationID,
		StartedAt:         p.startedAt,
		CheckpointAt:      p.checkpointAt,
	}

	return json.Marshal(&dto)
}

// UnmarshalJSON deserializes JSON data into a PersistedSnapshot.
func (p *PersistedSnapshot) UnmarshalJSON(data []byte) error {
	if p == nil {
		return fmt.Errorf("cannot unmarshal JSON into nil PersistedSnapshot")
	}

	type snapshotDTO struct {
		SessionID         string    `json:"session_id"`
		Barcode           string    `json:"barcode"`
		CodeFormat        string    `json:"code_format"`
		ManualCode        string    `json:"manual_code,omitempty"`
		Step              string    `json:"step"`
		PendingItemID     string    `json:"pending_item_id,omitempty"`
		StorageLocationID string    `json:"storage_location_id,omitempty"`
		StartedAt         time.Time `json:"started_at"`
		CheckpointAt      time.Time `json:"checkpoint_at"`
	}

	var aux snapshotDTO
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	sessionID, err := uuid.Parse(aux.SessionID)
	if err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	step := ParseSessionStep(aux.Step)
	if step == StepUnspecified {
		return fmt.Errorf("invalid session step %q: %w", aux.Step, ErrSessionStepUnknown)
	}

	p.sessionID = sessionID
	p.barcode = aux.Barcode
	p.codeFormat = ParseCodeFormat(aux.CodeFormat)
	p.manualCode = aux.ManualCode
	p.step = step
	p.pendingItemID = aux.PendingItemID
	p.storageLocationID = aux.StorageLocationID
	p.startedAt = aux.StartedAt
	p.checkpointAt = aux.CheckpointAt

	return nil
}
