package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorKeepsDomainErrors(t *testing.T) {
	orig := NewConflict("stale", map[string]any{"id": "u1"})
	wrapped := fmt.Errorf("grant: %w", orig)

	got := ToDomainError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeConflict, got.Code)
	assert.Equal(t, http.StatusConflict, got.HTTPStatus)
	assert.Equal(t, "u1", got.Details["id"])
}

func TestToDomainErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), CodeInfrastructure, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.HTTPStatus)
		})
	}
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestInfrastructureErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInfrastructureError(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeInfrastructure))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.Contains(t, err.Error(), "connection refused")
}
