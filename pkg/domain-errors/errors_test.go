package dErrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("direct error carries its code", func(t *testing.T) {
		err := New(CodeNotFound, "policy not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("wrapped chain is searched", func(t *testing.T) {
		inner := New(CodeConflict, "duplicate name")
		outer := Wrap(inner, CodeInternal, "failed to create department")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeConflict))
	})

	t.Run("fmt wrapping is traversed", func(t *testing.T) {
		inner := New(CodeLocked, "record locked")
		outer := fmt.Errorf("adding penalty: %w", inner)
		assert.True(t, HasCode(outer, CodeLocked))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestValidationViolations(t *testing.T) {
	err := NewValidation("password does not meet policy", []string{
		"Password must be at least 8 characters",
		"Password must contain at least one uppercase letter",
	})
	require.True(t, HasCode(err, CodeValidation))
	assert.Len(t, ViolationsOf(err), 2)
	assert.Nil(t, ViolationsOf(errors.New("boom")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:          http.StatusBadRequest,
		CodeValidation:          http.StatusBadRequest,
		CodeLocked:              http.StatusBadRequest,
		CodeInvariantViolation:  http.StatusBadRequest,
		CodeInsufficientBalance: http.StatusBadRequest,
		CodeUnauthorized:        http.StatusUnauthorized,
		CodeForbidden:           http.StatusForbidden,
		CodeNotFound:            http.StatusNotFound,
		CodeConflict:            http.StatusConflict,
		CodeInternal:            http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "missing")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}
