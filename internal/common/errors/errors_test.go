package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	t.Run("technical error keeps retry policy", func(t *testing.T) {
		stdErr := NewDatabaseInsertFailedError(fmt.Errorf("connection reset"))
		bpmnErr := ConvertToBPMNError(stdErr)

		assert.Equal(t, "DATABASE_ERROR", bpmnErr.Code)
		assert.Equal(t, 3, bpmnErr.Retries)
		assert.True(t, bpmnErr.Retryable)
		assert.Equal(t, "DATABASE_INSERT_FAILED", bpmnErr.ErrorVariables["originalErrorCode"])
	})

	t.Run("duplicate posting surfaces as format error", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(NewPostingDuplicateError(42))
		assert.Equal(t, "POSTING_FORMAT_INVALID", bpmnErr.Code)
		assert.Equal(t, 0, bpmnErr.Retries)
	})

	t.Run("unmapped code is thrown as-is", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(NewNotificationSendFailedError("telegram", fmt.Errorf("429")))
		assert.Equal(t, "NOTIFICATION_SEND_FAILED", bpmnErr.Code)
	})

	t.Run("metadata lands in variables", func(t *testing.T) {
		stdErr := NewSubscriberNotFoundError(7).WithMetadata("subscriberId", int64(7))
		vars := ConvertToBPMNError(stdErr).ToErrorVariables()
		assert.Equal(t, int64(7), vars["subscriberId"])
		assert.Equal(t, "SUBSCRIBER_NOT_FOUND", vars["errorCode"])
		assert.Equal(t, false, vars["retryable"])
	})
}

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeSourceFetchFailed, 3},
		{ErrCodeSearchIndexFailed, 3},
		{ErrCodeQueryTimeout, 2},
		{ErrCodePostingFormatInvalid, 0},
		{ErrCodeAccessDenied, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRetryCount(tt.code))
			assert.Equal(t, tt.want > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "POSTING", GetErrorCategory(ErrCodePostingUnclassified))
	assert.Equal(t, "SUBSCRIBER", GetErrorCategory(ErrCodeRegistrationSessionMissing))
	assert.Equal(t, "ACCESS", GetErrorCategory(ErrCodeAccessDenied))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeCacheOperationFailed))
	assert.Equal(t, "SOURCE", GetErrorCategory(ErrCodeSourceTimeout))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeReportSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeReviewTooShort))
	assert.Equal(t, "REVIEW", GetErrorCategory(ErrCodeReviewNotFound))
	assert.Equal(t, "WORKFLOW", GetErrorCategory(ErrCodeWorkflowEngineFailed))
	assert.Equal(t, "UNKNOWN", GetErrorCategory(ErrCodeInternal))
}

func TestNormalize(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewPostingNotFoundError(5))
	stdErr := Normalize(wrapped)
	require.NotNil(t, stdErr)
	assert.Equal(t, ErrCodePostingNotFound, stdErr.Code)

	plain := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestRemainingRetries(t *testing.T) {
	assert.Equal(t, int32(2), RemainingRetries(3, 3))
	assert.Equal(t, int32(2), RemainingRetries(5, 2))
	assert.Equal(t, int32(0), RemainingRetries(1, 3))
	assert.Equal(t, int32(0), RemainingRetries(0, 3))
}
