// Package errors provides structured error handling for the docs backend.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Index and storage errors
//   - 3XX: Network and LLM backend errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIndex indicates lexical/vector index and metadata store errors.
	CategoryIndex Category = "INDEX"
	// CategoryNetwork indicates network and LLM backend errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound    = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid     = "ERR_102_CONFIG_INVALID"
	ErrCodeNoAdapters        = "ERR_103_NO_RETRIEVAL_ADAPTERS"

	// Index errors (200-299)
	ErrCodeIndexOpen         = "ERR_201_INDEX_OPEN"
	ErrCodeIndexCorrupt      = "ERR_202_INDEX_CORRUPT"
	ErrCodeIndexLocked       = "ERR_203_INDEX_LOCKED"
	ErrCodeDocumentNotFound  = "ERR_204_DOCUMENT_NOT_FOUND"
	ErrCodeMetadataStore     = "ERR_205_METADATA_STORE"

	// Network/LLM errors (300-399)
	ErrCodeNetworkTimeout    = "ERR_301_NETWORK_TIMEOUT"
	ErrCodeLLMUnavailable    = "ERR_302_LLM_UNAVAILABLE"
	ErrCodeLLMBadResponse    = "ERR_303_LLM_BAD_RESPONSE"
	ErrCodeEmbedderFailed    = "ERR_304_EMBEDDER_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeEmptyQuery        = "ERR_402_EMPTY_QUERY"
	ErrCodeUnsupportedFormat = "ERR_403_UNSUPPORTED_FORMAT"

	// Internal errors (500-599)
	ErrCodeInternal          = "ERR_501_INTERNAL"
)

// categoryFromCode derives the category from the code's number range.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIndex
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives the severity from the code.
// Configuration errors are fatal: the pipeline cannot run without a
// valid configuration, and masking them per-query would be misleading.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryConfig:
		return SeverityFatal
	case CategoryNetwork:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether operations failing with this code
// may be retried. Only transient network conditions qualify.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeNetworkTimeout, ErrCodeLLMUnavailable, ErrCodeEmbedderFailed:
		return true
	default:
		return false
	}
}
