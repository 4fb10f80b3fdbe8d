package utils

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeInvalidURL        ErrorCode = "INVALID_URL"
	ErrorCodeValidationError   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeVideoNotFound     ErrorCode = "VIDEO_NOT_FOUND"
	ErrorCodeFormatNotFound    ErrorCode = "FORMAT_NOT_FOUND"
	ErrorCodeUpstreamError     ErrorCode = "UPSTREAM_ERROR"
	ErrorCodeConfigError       ErrorCode = "CONFIG_ERROR"
	ErrorCodeDownloadFailed    ErrorCode = "DOWNLOAD_FAILED"
	ErrorCodeDatabaseError     ErrorCode = "DATABASE_ERROR"
	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

func NewErrorWithDetails(code ErrorCode, message string, statusCode int, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Common error constructors
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return NewErrorWithDetails(ErrorCodeValidationError, message, http.StatusBadRequest, details)
}

func NewInvalidURLError(url string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeInvalidURL,
		"The provided link is not a valid YouTube URL",
		http.StatusBadRequest,
		map[string]interface{}{
			"expected_format": "https://www.youtube.com/watch?v=VIDEO_ID",
			"provided":        url,
		},
	)
}

func NewVideoNotFoundError(videoID string) *AppError {
	return NewError(
		ErrorCodeVideoNotFound,
		fmt.Sprintf("Video with ID %s not found", videoID),
		http.StatusNotFound,
	)
}

func NewFormatNotFoundError(selector string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeFormatNotFound,
		"Requested format is not available for this video",
		http.StatusNotFound,
		map[string]interface{}{
			"requested": selector,
		},
	)
}

func NewUpstreamError(err error) *AppError {
	return NewError(
		ErrorCodeUpstreamError,
		"Upstream provider call failed",
		http.StatusInternalServerError,
	)
}

func NewConfigError(message string) *AppError {
	return NewError(
		ErrorCodeConfigError,
		message,
		http.StatusInternalServerError,
	)
}

func NewDownloadError(err error) *AppError {
	return NewError(
		ErrorCodeDownloadFailed,
		"Failed to download media stream",
		http.StatusInternalServerError,
	)
}

func NewDatabaseError(err error) *AppError {
	return NewError(
		ErrorCodeDatabaseError,
		"Database operation failed",
		http.StatusInternalServerError,
	)
}

func NewRateLimitError() *AppError {
	return NewError(
		ErrorCodeRateLimitExceeded,
		"Too many requests",
		http.StatusTooManyRequests,
	)
}

func NewInternalError() *AppError {
	return NewError(
		ErrorCodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)
}
