// Package backup tracks backup-run metadata. The runs themselves (and the
// produced archives) live outside this system; we record who asked, when,
// and how it ended.
package backup

import (
	"time"

	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

// Status is the backup-run lifecycle.
type Status string

const (
	StatusRequested Status = "requested"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one backup attempt.
type Run struct {
	ID          id.BackupID `json:"id"`
	TenantID    string      `json:"tenantId"`
	Status      Status      `json:"status"`
	RequestedBy string      `json:"requestedBy"`
	RequestedAt time.Time   `json:"requestedAt"`
	FinishedAt  time.Time   `json:"finishedAt,omitzero"`
	SizeBytes   int64       `json:"sizeBytes,omitempty"`
	Location    string      `json:"location,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// NewRun builds a freshly requested backup run.
func NewRun(backupID id.BackupID, tenantID, requestedBy string, now time.Time) *Run {
	return &Run{
		ID:          backupID,
		TenantID:    tenantID,
		Status:      StatusRequested,
		RequestedBy: requestedBy,
		RequestedAt: now,
	}
}

// ApplyCompleted records a successful finish. Terminal states are final.
func (r *Run) ApplyCompleted(sizeBytes int64, location string, now time.Time) error {
	if r.Status != StatusRequested {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "backup run is already %s", r.Status)
	}
	r.Status = StatusCompleted
	r.SizeBytes = sizeBytes
	r.Location = location
	r.FinishedAt = now
	return nil
}

// ApplyFailed records a failed finish. Terminal states are final.
func (r *Run) ApplyFailed(reason string, now time.Time) error {
	if r.Status != StatusRequested {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "backup run is already %s", r.Status)
	}
	r.Status = StatusFailed
	r.Error = reason
	r.FinishedAt = now
	return nil
}
