package fallback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langdock/gateway-core/internal/models"
)

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
}

func TestNewRejectsDuplicate(t *testing.T) {
	_, err := New("a", "b", "a")
	assert.Error(t, err)
}

func TestNewRejectsBlank(t *testing.T) {
	_, err := New("a", "")
	assert.Error(t, err)
}

func TestNextReturnsUnattemptedSuccessor(t *testing.T) {
	c, err := New("large", "balanced", "default")
	require.NoError(t, err)

	next, err := c.Next("large", []models.ModelID{"large"})
	require.NoError(t, err)
	assert.Equal(t, models.ModelID("balanced"), next)
}

func TestNextSkipsAlreadyAttempted(t *testing.T) {
	c, err := New("large", "balanced", "default")
	require.NoError(t, err)

	next, err := c.Next("large", []models.ModelID{"large", "balanced"})
	require.NoError(t, err)
	assert.Equal(t, models.ModelID("default"), next)
}

func TestNextWrapsCircularly(t *testing.T) {
	c, err := New("large", "balanced", "default")
	require.NoError(t, err)

	next, err := c.Next("default", []models.ModelID{"balanced", "default"})
	require.NoError(t, err)
	assert.Equal(t, models.ModelID("large"), next)
}

func TestNextExhausted(t *testing.T) {
	c, err := New("large", "balanced", "default")
	require.NoError(t, err)

	_, err = c.Next("large", []models.ModelID{"large", "balanced", "default"})
	require.Error(t, err)
	var exhausted ErrExhausted
	require.True(t, errors.As(err, &exhausted))
}

func TestNextNotInChain(t *testing.T) {
	c, err := New("large", "balanced", "default")
	require.NoError(t, err)

	_, err = c.Next("unknown", nil)
	require.Error(t, err)
	var notInChain ErrNotInChain
	require.True(t, errors.As(err, &notInChain))
}
