package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("gone")))
	assert.Equal(t, CodeConflict, CodeOf(Conflict("taken")))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeUnknown, CodeOf(nil))
}

func TestCodeOf_WrappedChain(t *testing.T) {
	err := fmt.Errorf("handler: %w", SlotsExhausted("full"))
	assert.Equal(t, CodeSlotsExhausted, CodeOf(err))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "gone", NotFound("gone").Error())

	wrapped := TxFailure("move failed", errors.New("disk full"))
	assert.Equal(t, "move failed: disk full", wrapped.Error())
	assert.Equal(t, CodeTxFailure, CodeOf(wrapped))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(CodeInternal, "outer", cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsCode(t *testing.T) {
	inner := Conflict("taken")
	outer := TxFailure("tx failed", inner)

	assert.True(t, IsCode(outer, CodeTxFailure))
	assert.True(t, IsCode(outer, CodeConflict))
	assert.False(t, IsCode(outer, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeConflict))
}

func TestNewf(t *testing.T) {
	err := Newf(CodeInvalidArgument, "bad value %d", 7)
	assert.Equal(t, "bad value 7", err.Error())
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}
