package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// canonicalPayload is the exact tuple the hash covers. Field order is fixed
// by the struct, map keys serialize sorted, and the timestamp is normalized
// to UTC RFC3339Nano, so the serialization is deterministic.
type canonicalPayload struct {
	Action     string  `json:"action"`
	Resource   string  `json:"resource"`
	ResourceID string  `json:"resourceId"`
	UserID     string  `json:"userId"`
	Changes    Changes `json:"changes"`
	Timestamp  string  `json:"timestamp"`
}

// ComputeHash returns the SHA-256 hex digest over the canonical
// serialization of {action, resource, resourceId, userId, changes,
// timestamp}. Verifiers recomputing this over the original tuple must
// always match the stored hash; divergence is tampering.
func ComputeHash(action, resource, resourceID, userID string, changes Changes, createdAt time.Time) (string, error) {
	payload := canonicalPayload{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		UserID:     userID,
		Changes:    changes,
		Timestamp:  createdAt.UTC().Format(time.RFC3339Nano),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal canonical payload: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the entry's hash and reports whether it matches the
// stored one.
func Verify(e *Entry) (bool, error) {
	computed, err := ComputeHash(e.Action, e.Resource, e.ResourceID, e.UserID, e.Changes, e.CreatedAt)
	if err != nil {
		return false, err
	}
	return computed == e.Hash, nil
}
