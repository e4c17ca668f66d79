package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProvider is matched by every *Error returned from the client.
	ErrProvider = errors.New("provider error")

	// ErrNoImage is returned by EditImage when the response carries no inline image part.
	ErrNoImage = errors.New("response contained no inline image")
)

// Error is a network, transport or provider-side failure of a single call.
type Error struct {
	Op         string
	Model      string
	StatusCode int    // 0 when the request never got an HTTP response
	Status     string // provider status string such as RESOURCE_EXHAUSTED
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Model != "" {
		b.WriteString(" ")
		b.WriteString(e.Model)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " [%d", e.StatusCode)
		if e.Status != "" {
			b.WriteString(" " + e.Status)
		}
		b.WriteString("]")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrProvider
}

// IsProvider reports whether err is (or wraps) a provider *Error.
func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider)
}

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func decodeError(op, model string, statusCode int, body []byte) *Error {
	e := &Error{Op: op, Model: model, StatusCode: statusCode}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		e.Status = env.Error.Status
		e.Message = env.Error.Message
		return e
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	if msg == "" {
		msg = "empty error body"
	}
	e.Message = msg
	return e
}

// Severity says whether a failed call is worth repeating.
type Severity int

const (
	SeverityTemporary Severity = iota
	SeverityRetryable
	SeverityFatal
)

// Classify maps an error to a retry severity. Transport failures, throttling and 5xx responses
// are retryable; other 4xx responses, cancellations and missing images are fatal.
func Classify(err error) Severity {
	if err == nil {
		return SeverityTemporary
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return SeverityFatal
	}
	if errors.Is(err, ErrNoImage) {
		return SeverityFatal
	}

	var pe *Error
	if !errors.As(err, &pe) {
		return SeverityRetryable
	}
	switch {
	case pe.StatusCode == 0:
		return SeverityRetryable
	case pe.StatusCode == 429 || pe.StatusCode >= 500:
		return SeverityRetryable
	default:
		return SeverityFatal
	}
}

// Retryable reports whether the call that produced e may be repeated.
func (e *Error) Retryable() bool {
	return Classify(e) != SeverityFatal
}
