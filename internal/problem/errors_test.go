package problem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, 400, KindValidation.HTTPStatus())
	assert.Equal(t, 400, KindTokenLimitExceeded.HTTPStatus())
	assert.Equal(t, 400, KindModelUnknown.HTTPStatus())
	assert.Equal(t, 503, KindAllProvidersFailed.HTTPStatus())
	assert.Equal(t, 500, KindUpstreamTerminal.HTTPStatus())
	assert.Equal(t, 500, KindInternal.HTTPStatus())
}

func TestUpstreamTerminalWrapsCause(t *testing.T) {
	cause := errors.New("401 unauthorized")
	err := UpstreamTerminal(cause)
	assert.ErrorIs(t, err, cause)
}

func TestToDetails(t *testing.T) {
	err := TokenLimitExceeded(300_000, 200_000)
	details := ToDetails(err, "corr-1")
	assert.Equal(t, 400, details.Status)
	assert.Equal(t, "corr-1", details.CorrelationID)
	assert.Contains(t, details.Detail, "300000")
}

func TestFromErrorOnUnknownErrorIsInternal(t *testing.T) {
	details := FromError(errors.New("boom"), "corr-2")
	assert.Equal(t, 500, details.Status)
	assert.Equal(t, "boom", details.Detail)
}
