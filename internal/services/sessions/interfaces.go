package sessions

import (
	"context"

	"github.com/killallgit/diarist/internal/models"
)

// Store is the session record store. Every query reads durable storage so
// that a batch run and a later interactive run see the same state.
type Store interface {
	// SaveRaw creates the session or fully replaces its transcript entries,
	// leaving it awaiting speaker assignment.
	SaveRaw(ctx context.Context, in RawInput) (*models.Session, error)

	// Get retrieves a session by name
	Get(ctx context.Context, name string) (*models.Session, error)

	// Exists reports whether a session with this name is stored
	Exists(ctx context.Context, name string) (bool, error)

	// List returns every session ordered by name
	List(ctx context.Context) ([]models.Session, error)

	// ListByStatus returns the sessions in one status ordered by name
	ListByStatus(ctx context.Context, status models.SessionStatus) ([]models.Session, error)

	// Entries returns a session's transcript entries sorted by start time
	Entries(ctx context.Context, name string) ([]models.TranscriptEntry, error)

	// Complete moves a session to completed with the given mapping
	Complete(ctx context.Context, name string, mapping map[string]string, expectedVersion int) (*models.Session, error)

	// ExportRaw writes the raw transcript document of a session and returns its path
	ExportRaw(ctx context.Context, layout Layout, name, ext string) (string, error)
}

// Repository defines the interface for session data persistence
type Repository interface {
	// GetByName returns ErrSessionNotFound when absent
	GetByName(ctx context.Context, name string) (*models.Session, error)

	// Count returns how many sessions carry the name
	Count(ctx context.Context, name string) (int64, error)

	// Find lists sessions, optionally filtered by status
	Find(ctx context.Context, status models.SessionStatus) ([]models.Session, error)

	// Entries returns the stored entries of one session in insertion order
	Entries(ctx context.Context, sessionID uint) ([]models.TranscriptEntry, error)

	// Replace writes the session row and swaps its entries in one transaction.
	// expectedVersion guards against a concurrent writer; -1 means the row is new.
	Replace(ctx context.Context, session *models.Session, entries []models.TranscriptEntry, expectedVersion int) error

	// UpdateIfVersion saves session only if the stored version still matches.
	UpdateIfVersion(ctx context.Context, session *models.Session, expectedVersion int) error
}

// RawInput is the outcome of transcribing one session.
type RawInput struct {
	Name       string
	SourceFile string
	Entries    []models.TranscriptEntry
}
