package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/killallgit/diarist/internal/models"
	perrors "github.com/killallgit/diarist/pkg/errors"
	"gorm.io/gorm"
)

// repository implements the Repository interface using GORM
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new session repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByName(ctx context.Context, name string) (*models.Session, error) {
	var session models.Session
	result := r.db.WithContext(ctx).Where("name = ?", name).First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", perrors.ErrSessionNotFound, name)
		}
		return nil, result.Error
	}
	return &session, nil
}

func (r *repository) Count(ctx context.Context, name string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Session{}).Where("name = ?", name).Count(&count)
	return count, result.Error
}

func (r *repository) Find(ctx context.Context, status models.SessionStatus) ([]models.Session, error) {
	var sessions []models.Session
	query := r.db.WithContext(ctx).Order("name ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) Entries(ctx context.Context, sessionID uint) ([]models.TranscriptEntry, error) {
	var entries []models.TranscriptEntry
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) Replace(ctx context.Context, session *models.Session, entries []models.TranscriptEntry, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if expectedVersion < 0 {
			if err := tx.Omit("Entries").Create(session).Error; err != nil {
				return err
			}
		} else {
			if err := updateIfVersion(tx, session, expectedVersion); err != nil {
				return err
			}
			if err := tx.Where("session_id = ?", session.ID).Delete(&models.TranscriptEntry{}).Error; err != nil {
				return err
			}
		}

		for i := range entries {
			entries[i].ID = 0
			entries[i].SessionID = session.ID
			entries[i].Position = i
		}
		if len(entries) > 0 {
			if err := tx.CreateInBatches(entries, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) UpdateIfVersion(ctx context.Context, session *models.Session, expectedVersion int) error {
	return updateIfVersion(r.db.WithContext(ctx), session, expectedVersion)
}

func updateIfVersion(db *gorm.DB, session *models.Session, expectedVersion int) error {
	result := db.Model(&models.Session{}).
		Where("id = ? AND version = ?", session.ID, expectedVersion).
		Select("status", "version", "source_file", "total_segments", "speakers_detected",
			"speaker_mappings", "generated_at", "completed_at", "updated_at").
		Updates(session)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s (expected version %d)", perrors.ErrVersionConflict, session.Name, expectedVersion)
	}
	return nil
}
