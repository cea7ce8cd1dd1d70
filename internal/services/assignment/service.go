package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/killallgit/diarist/internal/models"
	"github.com/killallgit/diarist/internal/services/sessions"
	perrors "github.com/killallgit/diarist/pkg/errors"
	"github.com/killallgit/diarist/pkg/logger"
)

// Options for one Assign call
type Options struct {
	// Force re-finalizes a completed session from its stored mapping.
	Force bool
}

// Outcome describes what Assign did to a session.
type Outcome struct {
	Session    *models.Session
	Resolution *Resolution
	Final      *FinalTranscript
	Paths      FinalPaths
	// Transitioned is false for the zero-label no-op and for forced re-runs.
	Transitioned bool
}

// Service runs speaker assignment against the session store.
type Service struct {
	store    sessions.Store
	layout   sessions.Layout
	resolver *Resolver
	codec    string
	log      *logger.Logger
	now      func() time.Time
}

func NewService(store sessions.Store, layout sessions.Layout, resolver *Resolver, codec string, log *logger.Logger) *Service {
	return &Service{store: store, layout: layout, resolver: resolver, codec: codec, log: log, now: time.Now}
}

// Assign resolves the session's labels, completes the session and then
// writes the finalized transcript. A completed session is rejected unless opts.Force,
// which rewrites the final documents from the stored mapping without asking.
func (s *Service) Assign(ctx context.Context, name string, opts Options) (*Outcome, error) {
	session, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Entries(ctx, name)
	if err != nil {
		return nil, err
	}

	if session.Status == models.StatusCompleted {
		if !opts.Force {
			return nil, fmt.Errorf("%w: %s (use --force to regenerate its final transcript)", perrors.ErrAlreadyCompleted, name)
		}
		return s.refinalize(session, entries)
	}

	res, err := s.resolver.Resolve(ctx, name, entries, s.layout.SegmentsDir(name), s.codec)
	if err != nil {
		return nil, err
	}
	if len(res.Mapping) == 0 {
		s.log.Warn("session has no speaker labels, leaving it awaiting assignment", "session", name)
		return &Outcome{Session: session, Resolution: res}, nil
	}

	completed, err := s.store.Complete(ctx, name, res.Mapping, session.Version)
	if err != nil {
		return nil, err
	}

	ft := Finalize(name, entries, res.Mapping, s.now())
	paths, err := WriteFinal(s.layout, ft)
	if err != nil {
		return nil, fmt.Errorf("session %s completed but its final transcript was not written, rerun with --force: %w", name, err)
	}
	if _, err := s.store.ExportRaw(ctx, s.layout, name, s.codec); err != nil {
		return nil, err
	}

	s.log.Info("speaker assignment complete",
		"session", name,
		"speakers", len(ft.Speakers),
		"segments", ft.TotalSegments,
		"fallbacks", len(res.Fallbacks),
		"transcript", paths.JSON)
	return &Outcome{Session: completed, Resolution: res, Final: &ft, Paths: paths, Transitioned: true}, nil
}

func (s *Service) refinalize(session *models.Session, entries []models.TranscriptEntry) (*Outcome, error) {
	ft := Finalize(session.Name, entries, session.Mapping(), s.now())
	paths, err := WriteFinal(s.layout, ft)
	if err != nil {
		return nil, err
	}
	s.log.Info("final transcript regenerated", "session", session.Name, "transcript", paths.JSON)
	return &Outcome{
		Session:    session,
		Resolution: &Resolution{Mapping: session.Mapping()},
		Final:      &ft,
		Paths:      paths,
	}, nil
}

// Pending lists sessions awaiting assignment, read from the store.
func (s *Service) Pending(ctx context.Context) ([]string, error) {
	list, err := s.store.ListByStatus(ctx, models.StatusAwaitingAssignment)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list))
	for _, sess := range list {
		names = append(names, sess.Name)
	}
	return names, nil
}
