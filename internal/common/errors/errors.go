// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Posting and subscriber errors (business, never retried)
const (
	ErrCodePostingFormatInvalid       ErrorCode = "POSTING_FORMAT_INVALID"
	ErrCodePostingDuplicate           ErrorCode = "POSTING_DUPLICATE"
	ErrCodePostingUnclassified        ErrorCode = "POSTING_UNCLASSIFIED"
	ErrCodePostingNotFound            ErrorCode = "POSTING_NOT_FOUND"
	ErrCodeSubscriberNotFound         ErrorCode = "SUBSCRIBER_NOT_FOUND"
	ErrCodeRegistrationInputInvalid   ErrorCode = "REGISTRATION_INPUT_INVALID"
	ErrCodeRegistrationSessionMissing ErrorCode = "REGISTRATION_SESSION_MISSING"
	ErrCodeAccessDenied               ErrorCode = "ACCESS_DENIED"
	ErrCodeReviewTooShort             ErrorCode = "REVIEW_TOO_SHORT"
	ErrCodeReviewNotFound             ErrorCode = "REVIEW_NOT_FOUND"
	ErrCodeInvalidInput               ErrorCode = "INVALID_INPUT"
)

// Infrastructure errors (technical, retried)
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeCacheOperationFailed     ErrorCode = "CACHE_OPERATION_FAILED"
	ErrCodeSearchIndexFailed        ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeSourceFetchFailed        ErrorCode = "SOURCE_FETCH_FAILED"
	ErrCodeSourceTimeout            ErrorCode = "SOURCE_TIMEOUT"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeReportSendFailed         ErrorCode = "REPORT_SEND_FAILED"
	ErrCodeWorkflowEngineFailed     ErrorCode = "WORKFLOW_ENGINE_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
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

// WithMetadata returns the error with one metadata entry added.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewPostingFormatInvalidError carries the submitter-facing diagnostic as Message.
func NewPostingFormatInvalidError(message string) *StandardError {
	return newError(ErrCodePostingFormatInvalid, message, "", false)
}

func NewPostingDuplicateError(postingID int64) *StandardError {
	return newError(ErrCodePostingDuplicate, "Posting identifier already taken", fmt.Sprintf("postingId: %d", postingID), false)
}

func NewPostingUnclassifiedError(postingID int64) *StandardError {
	return newError(ErrCodePostingUnclassified, "Posting has no practice-area tags", fmt.Sprintf("postingId: %d", postingID), false)
}

func NewPostingNotFoundError(postingID int64) *StandardError {
	return newError(ErrCodePostingNotFound, "Posting not found", fmt.Sprintf("postingId: %d", postingID), false)
}

func NewSubscriberNotFoundError(subscriberID int64) *StandardError {
	return newError(ErrCodeSubscriberNotFound, "Subscriber not registered", fmt.Sprintf("subscriberId: %d", subscriberID), false)
}

func NewAccessDeniedError(actorID int64, capability string) *StandardError {
	return newError(ErrCodeAccessDenied, "Actor lacks capability", fmt.Sprintf("actorId: %d, capability: %s", actorID, capability), false)
}

func NewRegistrationInputInvalidError(details string) *StandardError {
	return newError(ErrCodeRegistrationInputInvalid, "Registration input does not fit the current step", details, false)
}

func NewRegistrationSessionMissingError(subscriberID int64) *StandardError {
	return newError(ErrCodeRegistrationSessionMissing, "No registration in progress", fmt.Sprintf("subscriberId: %d", subscriberID), false)
}

func NewReviewTooShortError(length int) *StandardError {
	return newError(ErrCodeReviewTooShort, "Review text too short", fmt.Sprintf("length: %d", length), false)
}

func NewReviewNotFoundError(reviewID string) *StandardError {
	return newError(ErrCodeReviewNotFound, "Review not found", fmt.Sprintf("reviewId: %s", reviewID), false)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewQueryTimeoutError(operation string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("operation: %s", operation), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewCacheOperationFailedError(err error) *StandardError {
	return newError(ErrCodeCacheOperationFailed, "Cache operation failed", err.Error(), true)
}

func NewSearchIndexFailedError(err error) *StandardError {
	return newError(ErrCodeSearchIndexFailed, "Search index operation failed", err.Error(), true)
}

func NewSourceFetchFailedError(source string, err error) *StandardError {
	return newError(ErrCodeSourceFetchFailed, fmt.Sprintf("Fetching from '%s' failed", source), err.Error(), true)
}

func NewSourceTimeoutError(source string) *StandardError {
	return newError(ErrCodeSourceTimeout, fmt.Sprintf("Source '%s' timeout", source), "", true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewReportSendFailedError(err error) *StandardError {
	return newError(ErrCodeReportSendFailed, "Run report delivery failed", err.Error(), true)
}

func NewWorkflowEngineError(operation string, err error) *StandardError {
	return newError(ErrCodeWorkflowEngineFailed, "Workflow engine call failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

// ==========================
// 4. Retry Policy and BPMN Mapping
// ==========================

// BPMNErrorMapping maps internal codes to the error codes caught by boundary
// events. Codes absent from the map are thrown as-is.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodePostingFormatInvalid:       "POSTING_FORMAT_INVALID",
	ErrCodePostingDuplicate:           "POSTING_FORMAT_INVALID",
	ErrCodePostingUnclassified:        "POSTING_UNCLASSIFIED",
	ErrCodePostingNotFound:            "POSTING_NOT_FOUND",
	ErrCodeSubscriberNotFound:         "SUBSCRIBER_NOT_FOUND",
	ErrCodeRegistrationInputInvalid:   "REGISTRATION_INPUT_INVALID",
	ErrCodeRegistrationSessionMissing: "REGISTRATION_SESSION_MISSING",
	ErrCodeAccessDenied:               "ACCESS_DENIED",
	ErrCodeReviewTooShort:             "REVIEW_TOO_SHORT",
	ErrCodeDatabaseConnectionFailed:   "DATABASE_ERROR",
	ErrCodeQueryExecutionFailed:       "DATABASE_ERROR",
	ErrCodeQueryTimeout:               "DATABASE_ERROR",
	ErrCodeDatabaseInsertFailed:       "DATABASE_ERROR",
	ErrCodeSourceFetchFailed:          "SOURCE_UNAVAILABLE",
	ErrCodeSourceTimeout:              "SOURCE_UNAVAILABLE",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeCacheOperationFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeSourceFetchFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeReportSendFailed,
		ErrCodeWorkflowEngineFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSourceTimeout:
		return 2

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

// ==========================
// 5. Helpers
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "POSTING"):
		return "POSTING"
	case strings.HasPrefix(codeStr, "SUBSCRIBER") || strings.HasPrefix(codeStr, "REGISTRATION"):
		return "SUBSCRIBER"
	case strings.HasPrefix(codeStr, "REVIEW_NOT"):
		return "REVIEW"
	case strings.HasPrefix(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "ACCESS"):
		return "ACCESS"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "CACHE"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "SOURCE"):
		return "SOURCE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "REPORT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "SHORT"):
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}
