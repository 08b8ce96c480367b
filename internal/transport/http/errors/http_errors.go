package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Error codes shared by every handler.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeTooFast          = "TOO_FAST"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec,omitempty"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	Write(w, status, APIError{Code: code, Message: message})
}

// WriteTooFast answers 429 and mirrors the wait in the Retry-After header.
func WriteTooFast(w http.ResponseWriter, retryAfterSec int64, message string) {
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSec, 10))
	Write(w, http.StatusTooManyRequests, APIError{
		Code:          CodeTooFast,
		Message:       message,
		RetryAfterSec: retryAfterSec,
	})
}
