package speakers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/diarist/api/types"
	"github.com/killallgit/diarist/internal/database"
	"github.com/killallgit/diarist/internal/models"
	speakersService "github.com/killallgit/diarist/internal/services/speakers"
	"github.com/killallgit/diarist/pkg/storage"
)

func serve(deps *types.Dependencies) *httptest.ResponseRecorder {
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1/speakers"), deps)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/speakers", nil))
	return w
}

func TestGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	t.Run("registry not configured", func(t *testing.T) {
		w := serve(&types.Dependencies{})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("no run yet", func(t *testing.T) {
		registry, err := storage.NewLocal(t.TempDir())
		require.NoError(t, err)

		w := serve(&types.Dependencies{Registry: registry})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("summary and latest run", func(t *testing.T) {
		registry, err := storage.NewLocal(t.TempDir())
		require.NoError(t, err)
		db, err := database.Open("", false)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		runs := speakersService.NewRunRepository(db.DB)

		summary := models.SpeakersSummary{
			RunID:         "run-1",
			Mode:          speakersService.ModeCompleted,
			TotalSpeakers: 2,
			TotalSegments: 3,
			SpeakersSummary: map[string]models.SpeakerSummaryLine{
				"Alex": {Segments: 2, DurationMinutes: 0.1, Sessions: 2},
				"Sam":  {Segments: 1, DurationMinutes: 0.05, Sessions: 1},
			},
		}
		require.NoError(t, storage.WriteJSON(ctx, registry, speakersService.SummaryFile, summary))
		require.NoError(t, runs.Create(ctx, &models.AggregationRun{ID: "run-1", Mode: speakersService.ModeCompleted, TotalSpeakers: 2, CreatedAt: time.Now()}))

		w := serve(&types.Dependencies{Registry: registry, Runs: runs})
		require.Equal(t, http.StatusOK, w.Code)

		var response types.SpeakersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, types.StatusOK, response.Status)
		require.NotNil(t, response.Summary)
		assert.Equal(t, 2, response.Summary.TotalSpeakers)
		assert.Equal(t, 2, response.Summary.SpeakersSummary["Alex"].Sessions)
		require.NotNil(t, response.LastRun)
		assert.Equal(t, "run-1", response.LastRun.ID)
	})
}
