package apperr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTransport_ClassifiesBackendErrors(t *testing.T) {
	assert.NoError(t, Transport(nil))

	err := Transport(errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "connection refused")

	assert.ErrorIs(t, Transport(gorm.ErrRecordNotFound), ErrNotFound)
	assert.NotErrorIs(t, Transport(gorm.ErrRecordNotFound), ErrTransport)
}

func TestTransport_KeepsExistingKinds(t *testing.T) {
	err := Transport(ErrInsufficientBalance)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NotErrorIs(t, err, ErrTransport)

	assert.Equal(t, context.Canceled, Transport(context.Canceled))
}

func TestKindErrors(t *testing.T) {
	err := Auth("invalid email or password")
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, "invalid email or password", err.Error())

	err = Validation("title is required")
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, HasKind(err))
	assert.False(t, HasKind(errors.New("plain")))
}
