package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure by the smallest unit it invalidates.
type Kind string

const (
	// KindCollaboratorUnavailable means a model or external tool cannot be
	// used at all. Fatal for the whole batch.
	KindCollaboratorUnavailable Kind = "collaborator_unavailable"
	// KindSessionFatal fails one session; the batch moves on.
	KindSessionFatal Kind = "session_fatal"
	// KindSegmentRecoverable drops one segment or artifact; the session goes on.
	KindSegmentRecoverable Kind = "segment_recoverable"
	// KindValidation is a rejected input that falls back to a safe default.
	KindValidation Kind = "validation"
	// KindInternal is anything not classified above.
	KindInternal Kind = "internal"
)

var (
	ErrTimelineMissing   = stderrors.New("timeline missing")
	ErrNoTranscripts     = stderrors.New("no transcript entries produced")
	ErrInvalidTransition = stderrors.New("invalid session status transition")
	ErrSessionNotFound   = stderrors.New("session not found")
	ErrAlreadyCompleted  = stderrors.New("session already completed")
	ErrInvalidAddress    = stderrors.New("invalid segment address")
	ErrAborted           = stderrors.New("aborted by operator")
	ErrVersionConflict   = stderrors.New("session was modified concurrently")
	ErrNoProvider        = stderrors.New("no available provider")
)

// PipelineError carries the failure kind together with where it happened.
type PipelineError struct {
	Kind    Kind
	Op      string
	Session string
	Segment string
	Err     error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Session != "" {
		msg += " session=" + e.Session
	}
	if e.Segment != "" {
		msg += " segment=" + e.Segment
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// CollaboratorUnavailable wraps err for a model or tool that cannot run.
func CollaboratorUnavailable(op string, err error) *PipelineError {
	return &PipelineError{Kind: KindCollaboratorUnavailable, Op: op, Err: err}
}

// SessionFatal wraps err as fatal for one session.
func SessionFatal(op, session string, err error) *PipelineError {
	return &PipelineError{Kind: KindSessionFatal, Op: op, Session: session, Err: err}
}

// SegmentRecoverable wraps err for a single segment.
func SegmentRecoverable(op, session, segment string, err error) *PipelineError {
	return &PipelineError{Kind: KindSegmentRecoverable, Op: op, Session: session, Segment: segment, Err: err}
}

// Validation reports a rejected input.
func Validation(op string, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost PipelineError in err's chain.
func KindOf(err error) Kind {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the status code the API should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrAlreadyCompleted), stderrors.Is(err, ErrVersionConflict), stderrors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case IsKind(err, KindValidation), stderrors.Is(err, ErrInvalidAddress):
		return http.StatusBadRequest
	case IsKind(err, KindCollaboratorUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Is and As re-export the standard helpers so callers importing this package
// under the errors name keep them.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }
