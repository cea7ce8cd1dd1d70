package types

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/diarist/internal/models"
	perrors "github.com/killallgit/diarist/pkg/errors"
)

// NewSession converts a stored session to its API view
func NewSession(s *models.Session) Session {
	return Session{
		Name:             s.Name,
		Status:           string(s.Status),
		Version:          s.Version,
		SourceFile:       s.SourceFile,
		TotalSegments:    s.TotalSegments,
		SpeakersDetected: s.Speakers(),
		SpeakerMappings:  s.Mapping(),
		GeneratedAt:      s.GeneratedAt,
		CompletedAt:      s.CompletedAt,
	}
}

// NewTranscriptEntry converts an entry, naming the speaker through mapping.
// Unmapped labels are shown as is.
func NewTranscriptEntry(e models.TranscriptEntry, mapping map[string]string) TranscriptEntry {
	speaker := e.Label
	if name, ok := mapping[e.Label]; ok && name != "" {
		speaker = name
	}
	return TranscriptEntry{
		Segment:    e.Address,
		SpeakerID:  e.Label,
		Speaker:    speaker,
		StartTime:  e.Start,
		EndTime:    e.End,
		Duration:   e.Duration,
		Text:       e.Text,
		Confidence: e.Confidence,
		Provider:   e.Provider,
	}
}

// AbortWithError writes an ErrorResponse with the status the error maps to
func AbortWithError(c *gin.Context, err error, message string) {
	code := perrors.HTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
	} else {
		message = err.Error()
	}
	c.AbortWithStatusJSON(code, ErrorResponse{
		BaseResponse: BaseResponse{Status: StatusError, Message: message},
		Kind:         string(perrors.KindOf(err)),
	})
}

// Unavailable answers 503 when a handler's dependency was not wired
func Unavailable(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
		BaseResponse: BaseResponse{Status: StatusError, Message: what + " not configured"},
	})
}
