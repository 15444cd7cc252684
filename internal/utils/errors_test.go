package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMatchesByCode(t *testing.T) {
	sentinel := NewAppError(http.StatusPaymentRequired, CodeInsufficientBalance, ErrInsufficientFunds)

	wrapped := fmt.Errorf("create ride: %w", sentinel.WithMessage("balance 3.00 is below price 6.50"))

	assert.ErrorIs(t, wrapped, sentinel)
	assert.NotErrorIs(t, wrapped, NotFoundError("ride"))

	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, http.StatusPaymentRequired, appErr.Status)
	assert.Equal(t, "balance 3.00 is below price 6.50", appErr.Message)
}

func TestAppErrorWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := UpstreamError("maps provider failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "maps provider failed: dial tcp: timeout", err.Error())
}
