package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Language model tier. Both are recovered locally by the rule tier.
	ErrCodeModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"

	// Mapping misses. Only the client miss is surfaced to the user.
	ErrCodeClientMappingMissing ErrorCode = "CLIENT_MAPPING_MISSING"
	ErrCodeUserMappingMissing   ErrorCode = "USER_MAPPING_MISSING"

	ErrCodeDictionaryUnavailable ErrorCode = "DICTIONARY_UNAVAILABLE"

	ErrCodeTrackerAuth ErrorCode = "TRACKER_AUTH_ERROR"
	ErrCodeTrackerAPI  ErrorCode = "TRACKER_API_ERROR"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeStorageFailed    ErrorCode = "STORAGE_FAILED"

	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns e after attaching key=value to its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func NewModelUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelUnavailable,
		Message:   "Language model endpoint unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewExtractionFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailed,
		Message:   "Model output could not be parsed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewClientMappingMissingError(clientName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeClientMappingMissing,
		Message:   "No project is mapped to this client",
		Details:   fmt.Sprintf("client: %s", clientName),
		Retryable: false,
		Metadata:  map[string]interface{}{"clientName": clientName},
		Timestamp: time.Now().UTC(),
	}
}

func NewUserMappingMissingError(displayName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserMappingMissing,
		Message:   "No tracker account is mapped to this person",
		Details:   fmt.Sprintf("displayName: %s", displayName),
		Retryable: false,
		Metadata:  map[string]interface{}{"displayName": displayName},
		Timestamp: time.Now().UTC(),
	}
}

func NewDictionaryUnavailableError(accountID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDictionaryUnavailable,
		Message:   "Tracker dictionaries unavailable",
		Details:   fmt.Sprintf("account: %s, error: %s", accountID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTrackerAuthError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTrackerAuth,
		Message:   "Tracker rejected the credentials",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewTrackerAPIError(status int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTrackerAPI,
		Message:   fmt.Sprintf("Tracker API error (HTTP %d)", status),
		Details:   details,
		Retryable: status == 0 || status >= 500,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Cache store unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewStorageFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageFailed,
		Message:   "Database operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternalError,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// As unwraps err into a *StandardError when one is in its chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeModelUnavailable:      "MODEL_UNAVAILABLE",
	ErrCodeExtractionFailed:      "EXTRACTION_FAILED",
	ErrCodeClientMappingMissing:  "CLIENT_MAPPING_MISSING",
	ErrCodeUserMappingMissing:    "USER_MAPPING_MISSING",
	ErrCodeDictionaryUnavailable: "DICTIONARY_UNAVAILABLE",
	ErrCodeTrackerAuth:           "TRACKER_AUTH_ERROR",
	ErrCodeTrackerAPI:            "TRACKER_API_ERROR",
	ErrCodeCacheUnavailable:      "CACHE_UNAVAILABLE",
	ErrCodeStorageFailed:         "STORAGE_FAILED",
	ErrCodeInvalidInput:          "INVALID_INPUT",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCacheUnavailable,
		ErrCodeStorageFailed,
		ErrCodeTrackerAPI,
		ErrCodeInternalError:
		return 3

	case ErrCodeDictionaryUnavailable:
		return 2

	// The rule tier already covers the model, so one retry is plenty.
	case ErrCodeModelUnavailable:
		return 1

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "MODEL") || strings.HasPrefix(codeStr, "EXTRACTION"):
		return "LLM"
	case strings.Contains(codeStr, "MAPPING"):
		return "MAPPING"
	case strings.HasPrefix(codeStr, "TRACKER"):
		return "TRACKER"
	case strings.HasPrefix(codeStr, "DICTIONARY"), strings.HasPrefix(codeStr, "CACHE"):
		return "CACHE"
	case strings.HasPrefix(codeStr, "STORAGE"):
		return "DATABASE"
	case strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
