package domain

import "fmt"

// Status categorizes the outcome of a chat request.
type Status string

const (
	// StatusOK indicates the operation succeeded.
	StatusOK Status = "ok"
	// StatusNotFound indicates the remote object does not exist.
	StatusNotFound Status = "not_found"
	// StatusConflict indicates the remote object might already exist.
	StatusConflict Status = "conflict"
	// StatusForbidden indicates the token lacks permission.
	StatusForbidden Status = "forbidden"
	// StatusRateLimited indicates GitHub throttled the call.
	StatusRateLimited Status = "rate_limited"
	// StatusError indicates any other failure.
	StatusError Status = "error"
	// StatusClarify indicates the prompt could not be resolved to an operation.
	StatusClarify Status = "clarify"
)

// Result is the uniform envelope returned by every operation.
// Message is always human readable; Data optionally carries the structured payload.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"response"`
	Data    any    `json:"data,omitempty"`
}

// OK builds a successful result.
func OK(data any, format string, args ...any) Result {
	return Result{Status: StatusOK, Message: fmt.Sprintf(format, args...), Data: data}
}

// Fail builds a failed result with the given status.
func Fail(status Status, format string, args ...any) Result {
	return Result{Status: status, Message: fmt.Sprintf(format, args...)}
}

// Succeeded returns true if the result status is ok.
func (r Result) Succeeded() bool {
	return r.Status == StatusOK
}
