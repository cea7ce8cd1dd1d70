package sessions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/killallgit/diarist/internal/models"
	perrors "github.com/killallgit/diarist/pkg/errors"
	"github.com/killallgit/diarist/pkg/logger"
)

// Service implements the Store interface
type Service struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

// NewService creates a new session store service
func NewService(repo Repository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

var _ Store = (*Service)(nil)

// SaveRaw persists the transcript entries of a session. Re-saving an
// awaiting session replaces its entries wholesale; a completed session is
// never overwritten.
func (s *Service) SaveRaw(ctx context.Context, in RawInput) (*models.Session, error) {
	if err := ValidateName(in.Name); err != nil {
		return nil, err
	}
	if len(in.Entries) == 0 {
		return nil, perrors.SessionFatal("save_raw", in.Name, perrors.ErrNoTranscripts)
	}
	seen := make(map[string]bool, len(in.Entries))
	labels := make(map[string]bool)
	for _, e := range in.Entries {
		if seen[e.Address] {
			return nil, perrors.Validation("save_raw", "segment %s has more than one transcript entry", e.Address)
		}
		seen[e.Address] = true
		labels[e.Label] = true
	}

	existing, err := s.repo.GetByName(ctx, in.Name)
	if err != nil && !perrors.Is(err, perrors.ErrSessionNotFound) {
		return nil, err
	}

	session := &models.Session{Name: in.Name}
	expected := -1
	if existing != nil {
		if existing.Status == models.StatusCompleted {
			return nil, fmt.Errorf("%w: %s", perrors.ErrAlreadyCompleted, in.Name)
		}
		session = existing
		expected = existing.Version
	}

	now := s.now()
	session.Status = models.StatusAwaitingAssignment
	session.Version++
	session.SourceFile = in.SourceFile
	session.TotalSegments = len(in.Entries)
	session.SetSpeakers(keys(labels))
	session.SetMapping(nil)
	session.GeneratedAt = now
	session.CompletedAt = nil
	session.UpdatedAt = now

	entries := append([]models.TranscriptEntry(nil), in.Entries...)
	if err := s.repo.Replace(ctx, session, entries, expected); err != nil {
		return nil, fmt.Errorf("saving session %s: %w", in.Name, err)
	}

	s.log.Info("raw transcript stored",
		"session", in.Name,
		"entries", len(entries),
		"speakers", session.Speakers(),
		"version", session.Version,
		"replaced", existing != nil)
	return session, nil
}

func (s *Service) Get(ctx context.Context, name string) (*models.Session, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	n, err := s.repo.Count(ctx, name)
	return n > 0, err
}

func (s *Service) List(ctx context.Context) ([]models.Session, error) {
	return s.repo.Find(ctx, "")
}

func (s *Service) ListByStatus(ctx context.Context, status models.SessionStatus) ([]models.Session, error) {
	if !status.Valid() {
		return nil, perrors.Validation("list_sessions", "unknown status %q", status)
	}
	return s.repo.Find(ctx, status)
}

// Entries materialises the transcript sorted by start time. Equal start
// times keep their stored order.
func (s *Service) Entries(ctx context.Context, name string) ([]models.TranscriptEntry, error) {
	session, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.Entries(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("loading entries of %s: %w", name, err)
	}
	SortByStart(entries)
	return entries, nil
}

// Complete is the only transition out of awaiting_speaker_assignment. Labels
// present in the transcript but absent from mapping are mapped to themselves.
func (s *Service) Complete(ctx context.Context, name string, mapping map[string]string, expectedVersion int) (*models.Session, error) {
	session, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case models.StatusAwaitingAssignment:
	case models.StatusCompleted:
		return nil, fmt.Errorf("%w: %s", perrors.ErrAlreadyCompleted, name)
	default:
		return nil, fmt.Errorf("%w: %s is %q", perrors.ErrInvalidTransition, name, session.Status)
	}
	if session.Version != expectedVersion {
		return nil, fmt.Errorf("%w: %s is at version %d, expected %d", perrors.ErrVersionConflict, name, session.Version, expectedVersion)
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("%w: %s: empty speaker mapping", perrors.ErrInvalidTransition, name)
	}

	full := make(map[string]string, len(mapping))
	for _, label := range session.Speakers() {
		full[label] = label
		if durable, ok := mapping[label]; ok && strings.TrimSpace(durable) != "" {
			full[label] = durable
		}
	}
	for label := range mapping {
		if _, ok := full[label]; !ok {
			return nil, fmt.Errorf("%w: %s: label %s does not occur in the transcript", perrors.ErrInvalidTransition, name, label)
		}
	}

	now := s.now()
	session.Status = models.StatusCompleted
	session.SetMapping(full)
	session.CompletedAt = &now
	session.UpdatedAt = now
	session.Version++

	if err := s.repo.UpdateIfVersion(ctx, session, expectedVersion); err != nil {
		return nil, err
	}
	s.log.Info("session completed", "session", name, "mapping", full, "version", session.Version)
	return session, nil
}

// SortByStart orders entries by start time, keeping the given order on ties.
func SortByStart(entries []models.TranscriptEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Start < entries[j].Start
	})
}

// ValidateName checks that a session name is usable as a single path component.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return perrors.Validation("session_name", "session name is empty")
	case name == "." || name == "..":
		return perrors.Validation("session_name", "session name %q is not a file name", name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return perrors.Validation("session_name", "session name %q contains a path separator", name)
	}
	return nil
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
