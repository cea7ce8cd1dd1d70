package types

import (
	"github.com/killallgit/diarist/internal/database"
	"github.com/killallgit/diarist/internal/services/sessions"
	"github.com/killallgit/diarist/internal/services/speakers"
	"github.com/killallgit/diarist/pkg/logger"
	"github.com/killallgit/diarist/pkg/storage"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB       *database.DB
	Sessions sessions.Store
	Registry storage.FileStore
	Runs     speakers.RunRepository
	Log      *logger.Logger
}
