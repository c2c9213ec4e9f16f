package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError_lockErrors_becomeConcurrencyTimeout(t *testing.T) {
	for _, code := range []string{codeLockNotAvailable, codeDeadlockDetected, codeSerializationFailure, codeQueryCanceled} {
		err := TranslateError(fmt.Errorf("lock inventory row: %w", &pgconn.PgError{Code: code}))
		assert.Equal(t, apperror.KindConcurrencyTimeout, apperror.KindOf(err), "code %s", code)
	}
}

func TestTranslateError_deadlineExceeded_becomesConcurrencyTimeout(t *testing.T) {
	err := TranslateError(fmt.Errorf("select: %w", context.DeadlineExceeded))
	assert.True(t, apperror.Is(err, apperror.KindConcurrencyTimeout))
}

func TestTranslateError_domainErrorPassesThrough(t *testing.T) {
	domainErr := apperror.InsufficientStock(1, 2, 3, 0)
	assert.Same(t, domainErr, TranslateError(domainErr))
}

func TestTranslateError_otherErrorsUnchanged(t *testing.T) {
	plain := errors.New("connection reset")
	assert.Equal(t, plain, TranslateError(plain))
	assert.Nil(t, TranslateError(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: codeUniqueViolation})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: codeDeadlockDetected}))
	assert.False(t, IsUniqueViolation(errors.New("x")))
}
