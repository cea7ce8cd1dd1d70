package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"collaborator", CollaboratorUnavailable("probe", New("no binary")), KindCollaboratorUnavailable},
		{"session", SessionFatal("transcribe", "m", ErrTimelineMissing), KindSessionFatal},
		{"segment", SegmentRecoverable("transcribe", "m", "m_A_000_1.0s-2.0s", New("boom")), KindSegmentRecoverable},
		{"validation", Validation("assign", "bad name %q", "!!"), KindValidation},
		{"wrapped", fmt.Errorf("outer: %w", SessionFatal("x", "m", ErrNoTranscripts)), KindSessionFatal},
		{"plain", New("plain"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestPipelineErrorUnwrap(t *testing.T) {
	err := SessionFatal("correlate", "meeting", ErrTimelineMissing)
	assert.True(t, Is(err, ErrTimelineMissing))
	assert.Contains(t, err.Error(), "session=meeting")
	assert.Contains(t, err.Error(), "correlate")

	var pe *PipelineError
	assert.True(t, As(fmt.Errorf("wrap: %w", err), &pe))
	assert.Equal(t, "meeting", pe.Session)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("get: %w", ErrSessionNotFound)))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrAlreadyCompleted))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("list", "bad status")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(CollaboratorUnavailable("probe", New("x"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(New("x")))
}
