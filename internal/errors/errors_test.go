package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrCodeInternal, "something failed")

	assert.Equal(t, "something failed: boom", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))

	bare := Validation("bad input")
	assert.Equal(t, "bad input", bare.Error())
	assert.Nil(t, errors.Unwrap(bare))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
	assert.Nil(t, Wrapf(nil, ErrCodeInternal, "ignored %d", 1))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		err       error
		predicate func(error) bool
		want      bool
	}{
		{NotFound("x"), IsNotFound, true},
		{Conflictf("dup %s", "key"), IsConflict, true},
		{Validation("x"), IsValidation, true},
		{&AppError{Code: ErrCodeForeignKey}, IsForeignKey, true},
		{Unavailable("x"), IsUnavailable, true},
		{Internal("x"), IsInternal, true},
		{Conflict("x"), IsNotFound, false},
		{errors.New("plain"), IsConflict, false},
		{nil, IsConflict, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.predicate(tt.err))
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	inner := Conflict("decision exists")
	wrapped := fmt.Errorf("resolve job: %w", inner)

	assert.True(t, IsConflict(wrapped))
	assert.Equal(t, ErrCodeConflict, GetCode(wrapped))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, GetCode(Validation("x")))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
}

func TestValidationAndForeignKeyAreDistinct(t *testing.T) {
	// The ack policy depends on this: validation drops, foreign key retries.
	fk := &AppError{Code: ErrCodeForeignKey, Message: "job missing"}
	require.True(t, IsForeignKey(fk))
	require.False(t, IsValidation(fk))
}
