package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
		severity Severity
	}{
		{"config code", ErrCodeConfigInvalid, CategoryConfig, SeverityFatal},
		{"no adapters is fatal", ErrCodeNoAdapters, CategoryConfig, SeverityFatal},
		{"index code", ErrCodeIndexCorrupt, CategoryIndex, SeverityError},
		{"network code", ErrCodeLLMUnavailable, CategoryNetwork, SeverityWarning},
		{"validation code", ErrCodeEmptyQuery, CategoryValidation, SeverityError},
		{"internal code", ErrCodeInternal, CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestError_Format(t *testing.T) {
	err := New(ErrCodeIndexOpen, "cannot open lexical index", nil)
	assert.Equal(t, "[ERR_201_INDEX_OPEN] cannot open lexical index", err.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeLLMUnavailable, cause)
	require.NotNil(t, err)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeNetworkTimeout, "timeout A", nil)
	b := New(ErrCodeNetworkTimeout, "timeout B", nil)
	c := New(ErrCodeInternal, "other", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeNetworkTimeout, "slow", nil)))
	assert.True(t, IsRetryable(New(ErrCodeLLMUnavailable, "down", nil)))
	assert.False(t, IsRetryable(New(ErrCodeConfigInvalid, "bad", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestIsRetryable_WrappedChain(t *testing.T) {
	inner := New(ErrCodeEmbedderFailed, "embed failed", nil)
	outer := fmt.Errorf("indexing: %w", inner)
	assert.True(t, IsRetryable(outer))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := New(ErrCodeIndexLocked, "index locked", nil).
		WithDetail("path", "/data/index").
		WithSuggestion("wait for the running rebuild to finish")

	assert.Equal(t, "/data/index", err.Details["path"])
	assert.NotEmpty(t, err.Suggestion)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeEmptyQuery, CodeOf(New(ErrCodeEmptyQuery, "", nil)))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}
