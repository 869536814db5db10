package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{InvalidInput, http.StatusBadRequest},
		{Unauthorized, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{InsufficientStock, http.StatusConflict},
		{TransactionFailed, http.StatusInternalServerError},
		{Internal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Status())
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := fmt.Errorf("booking sale: %w", Wrap(TransactionFailed, cause, "transaction failed"))

	assert.True(t, Is(err, TransactionFailed))
	assert.False(t, Is(err, Conflict))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transaction failed", Message(err))
	assert.Contains(t, err.Error(), "deadlock detected")
}

func TestUnclassifiedErrors(t *testing.T) {
	err := errors.New("dial tcp: connection refused")

	assert.Equal(t, Internal, KindOf(err))
	assert.Equal(t, "internal server error", Message(err))
	assert.False(t, Is(nil, Internal))
}
