package engine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure so callers can pick the right
// reaction: fallback, retry, or hard failure.
type ErrorKind string

const (
	KindInvalidQuery ErrorKind = "invalid_query"
	KindAuth         ErrorKind = "auth_error"
	KindQuota        ErrorKind = "quota_exceeded"
	KindTransient    ErrorKind = "transient_network_error"
	KindParse        ErrorKind = "parse_error"
	KindUnknown      ErrorKind = "unknown"
)

// Stage names used in error annotations.
const (
	StageValidation  = "validation"
	StageAcquisition = "acquisition"
	StageScoring     = "scoring"
	StageRanking     = "ranking"
)

// Error is a classified failure, annotated with the pipeline stage that
// produced it.
type Error struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errf builds a classified error from a format string.
func Errf(kind ErrorKind, stage, format string, args ...any) error {
	return &Error{Kind: kind, Stage: stage, Err: fmt.Errorf(format, args...)}
}

// WrapErr classifies an existing error. If err is already classified its
// kind is preserved and only the stage annotation is added when missing.
func WrapErr(kind ErrorKind, stage string, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		if ce.Stage == "" {
			return &Error{Kind: ce.Kind, Stage: stage, Err: ce.Err}
		}
		return err
	}
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// KindOf extracts the classification from err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
