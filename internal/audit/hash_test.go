package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	changes := Changes{
		Before: map[string]any{"status": "draft"},
		After:  map[string]any{"status": "active"},
		Fields: []string{"status"},
	}

	t.Run("deterministic over identical input", func(t *testing.T) {
		h1, err := ComputeHash("policy_activated", "mixed_vacation_policy", "p-1", "u-1", changes, createdAt)
		require.NoError(t, err)
		h2, err := ComputeHash("policy_activated", "mixed_vacation_policy", "p-1", "u-1", changes, createdAt)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
		assert.Len(t, h1, 64)
	})

	t.Run("map key order does not matter", func(t *testing.T) {
		a := Changes{After: map[string]any{"a": 1, "b": 2, "c": 3}}
		b := Changes{After: map[string]any{"c": 3, "b": 2, "a": 1}}
		h1, err := ComputeHash("x", "y", "z", "u", a, createdAt)
		require.NoError(t, err)
		h2, err := ComputeHash("x", "y", "z", "u", b, createdAt)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("timestamp zone is normalized", func(t *testing.T) {
		east := createdAt.In(time.FixedZone("UTC+3", 3*3600))
		h1, err := ComputeHash("x", "y", "z", "u", changes, createdAt)
		require.NoError(t, err)
		h2, err := ComputeHash("x", "y", "z", "u", changes, east)
		require.NoError(t, err)
		assert.Equal(t, h1, h2, "same instant in a different zone must hash identically")
	})

	t.Run("any covered field changes the hash", func(t *testing.T) {
		base, err := ComputeHash("x", "y", "z", "u", changes, createdAt)
		require.NoError(t, err)

		h, err := ComputeHash("x2", "y", "z", "u", changes, createdAt)
		require.NoError(t, err)
		assert.NotEqual(t, base, h)

		h, err = ComputeHash("x", "y", "z", "u", changes, createdAt.Add(time.Nanosecond))
		require.NoError(t, err)
		assert.NotEqual(t, base, h)

		h, err = ComputeHash("x", "y", "z", "u", Changes{}, createdAt)
		require.NoError(t, err)
		assert.NotEqual(t, base, h)
	})
}

func TestVerify(t *testing.T) {
	createdAt := time.Now().UTC()
	changes := Changes{Fields: []string{"amount"}}
	hash, err := ComputeHash("penalty_added", "resigned_employee", "r-1", "u-1", changes, createdAt)
	require.NoError(t, err)

	entry := &Entry{
		Action:     "penalty_added",
		Resource:   "resigned_employee",
		ResourceID: "r-1",
		UserID:     "u-1",
		Changes:    changes,
		Hash:       hash,
		CreatedAt:  createdAt,
	}

	ok, err := Verify(entry)
	require.NoError(t, err)
	assert.True(t, ok)

	tampered := *entry
	tampered.Action = "penalty_removed"
	ok, err = Verify(&tampered)
	require.NoError(t, err)
	assert.False(t, ok, "tampered action must fail verification")

	backdated := *entry
	backdated.CreatedAt = createdAt.Add(-time.Hour)
	ok, err = Verify(&backdated)
	require.NoError(t, err)
	assert.False(t, ok, "mutated createdAt must fail verification")
}
