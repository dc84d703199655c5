package utils

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrCancelledByUser = errors.New(CancelledMessage)

type ValidationKind int

const (
	EmptyInput ValidationKind = iota
	UnsupportedScheme
	MalformedForService
	UnsupportedService
)

// ValidationError rejects a URL before any job is created.
type ValidationError struct {
	Kind    ValidationKind
	Service ServiceKind
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case EmptyInput:
		return "URL cannot be empty"
	case UnsupportedScheme:
		return "URL must start with http:// or https://"
	case MalformedForService:
		return fmt.Sprintf("invalid URL format for %s, check the link", e.Service)
	default:
		return "unsupported video service or invalid URL format"
	}
}

// ProbeError hides raw engine diagnostics behind a generic message.
type ProbeError struct {
	cause error
}

func NewProbeError(cause error) *ProbeError {
	return &ProbeError{cause: cause}
}

func (e *ProbeError) Error() string { return ProbeFailedMessage }
func (e *ProbeError) Unwrap() error { return e.cause }

type ErrorCategory int

const (
	CategoryGeneric ErrorCategory = iota
	CategoryNotFound
	CategoryForbidden
	CategoryAgeRestricted
	CategoryConnectivity
	CategoryCopyright
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryNotFound:
		return "not-found"
	case CategoryForbidden:
		return "forbidden"
	case CategoryAgeRestricted:
		return "age-restricted"
	case CategoryConnectivity:
		return "connectivity"
	case CategoryCopyright:
		return "copyright"
	}
	return "generic"
}

// ExecutionError is the user-facing classification of an engine failure.
type ExecutionError struct {
	Category ErrorCategory
	Raw      string
}

func (e *ExecutionError) Error() string {
	switch e.Category {
	case CategoryNotFound:
		return "video not found (404), it may have been removed or made private"
	case CategoryForbidden:
		return "access denied (403), the video may be unavailable in your region"
	case CategoryAgeRestricted:
		return "video is age-restricted and requires sign-in"
	case CategoryConnectivity:
		return "connection error, check your internet connection or try again later"
	case CategoryCopyright:
		return "video is unavailable due to a copyright claim"
	}
	return "download error: " + e.Raw
}

// ClassifyExecutionError maps a raw engine error onto an ExecutionError.
// It returns nil for a nil error.
func ClassifyExecutionError(err error) *ExecutionError {
	if err == nil {
		return nil
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee
	}
	raw := err.Error()
	lower := strings.ToLower(raw)
	for _, rule := range executionRules {
		for _, needle := range rule.needles {
			if hasUpper(needle) {
				if strings.Contains(raw, needle) {
					return &ExecutionError{Category: rule.category, Raw: raw}
				}
			} else if strings.Contains(lower, needle) {
				return &ExecutionError{Category: rule.category, Raw: raw}
			}
		}
	}
	return &ExecutionError{Category: CategoryGeneric, Raw: raw}
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
