package transcription

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/killallgit/diarist/pkg/errors"
	"github.com/killallgit/diarist/pkg/logger"
)

// SelectProvider probes ranked providers in order and returns the first one
// that is available. When none is, the error is collaborator-unavailable and
// names why each candidate was rejected.
func SelectProvider(ctx context.Context, ranked []Transcriber, log *logger.Logger) (Transcriber, error) {
	var reasons []error
	for _, t := range ranked {
		if t == nil {
			continue
		}
		if err := t.Available(ctx); err != nil {
			log.Debug("transcription provider unavailable", "provider", t.Name(), "error", err)
			reasons = append(reasons, fmt.Errorf("%s: %w", t.Name(), err))
			continue
		}
		log.Info("selected transcription provider", "provider", t.Name(), "model", t.Model())
		return t, nil
	}
	reasons = append([]error{perrors.ErrNoProvider}, reasons...)
	return nil, perrors.CollaboratorUnavailable("select transcription provider", errors.Join(reasons...))
}
