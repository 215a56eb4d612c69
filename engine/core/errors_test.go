package core

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsInvariantViolation(t *testing.T) {
	assert.True(t, IsInvariantViolation(errors.AssertionFailedf("frame already in progress")))
	assert.True(t, IsInvariantViolation(errors.Wrap(errors.AssertionFailedf("x"), "begin frame")))
	assert.False(t, IsInvariantViolation(ErrSwapchainFormatChanged))
	assert.True(t, errors.Is(errors.Wrap(ErrSwapchainFormatChanged, "recreate"), ErrSwapchainFormatChanged))
}

func TestSetLogLevel(t *testing.T) {
	assert.NoError(t, SetLogLevel("debug"))
	assert.Error(t, SetLogLevel("loud"))
	assert.NoError(t, SetLogLevel("info"))
}
