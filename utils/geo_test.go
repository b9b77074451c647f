package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	// Paris to Lyon is roughly 392 km.
	d := Haversine(48.8566, 2.3522, 45.7640, 4.8357)
	assert.InDelta(t, 392, d, 5)
	assert.Zero(t, Haversine(10, 10, 10, 10))
}

func TestStatusFor(t *testing.T) {
	wrapped := fmt.Errorf("match expired: %w", ErrConflict)
	assert.Equal(t, http.StatusConflict, StatusFor(wrapped))
	assert.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("case: %w", ErrNotFound)))
	assert.Equal(t, http.StatusBadRequest, StatusFor(ErrInvalid))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}
