package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := New(ErrorTypeExtraction, "no posts found")
	assert.Equal(t, "extraction error: no posts found", err.Error())

	withCode := &Error{Type: ErrorTypeDownload, Message: "fetch failed", Code: 404}
	assert.Equal(t, "download error (code 404): fetch failed", withCode.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypePrecondition, "state %q not found", "/auth/x.json")
	assert.Equal(t, ErrorTypePrecondition, err.Type)
	assert.Contains(t, err.Message, `"/auth/x.json"`)
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrorTypePrecondition))
	assert.True(t, IsFatal(ErrorTypeNavigation))
	assert.True(t, IsFatal(ErrorTypeTimeout))
	assert.False(t, IsFatal(ErrorTypeExtraction))
	assert.False(t, IsFatal(ErrorTypeDownload))
	assert.False(t, IsFatal(ErrorTypeNetwork))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeDownload))
	assert.False(t, IsRetryable(ErrorTypeTimeout))
	assert.False(t, IsRetryable(ErrorTypeUnknown))
}

func TestIsRetryableStatusCode(t *testing.T) {
	retryable := []int{0, 429, 500, 502, 503, 504, 599}
	for _, code := range retryable {
		assert.True(t, IsRetryableStatusCode(code), "status %d", code)
	}
	permanent := []int{200, 301, 400, 401, 403, 404, 410}
	for _, code := range permanent {
		assert.False(t, IsRetryableStatusCode(code), "status %d", code)
	}
}
