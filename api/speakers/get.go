package speakers

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/diarist/api/types"
	"github.com/killallgit/diarist/internal/models"
	speakersService "github.com/killallgit/diarist/internal/services/speakers"
)

// Get returns the summary written by the latest aggregation run
// @Summary      Speaker registry summary
// @Description  Per-speaker totals from the most recent aggregation run
// @Tags         speakers
// @Produce      json
// @Success      200  {object}  types.SpeakersResponse
// @Failure      404  {object}  types.ErrorResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /api/v1/speakers [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps == nil || deps.Registry == nil {
			types.Unavailable(c, "speaker registry")
			return
		}

		ctx := c.Request.Context()
		summary, err := speakersService.LoadSummary(ctx, deps.Registry)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				c.AbortWithStatusJSON(http.StatusNotFound, types.ErrorResponse{
					BaseResponse: types.BaseResponse{Status: types.StatusError, Message: "No aggregation run found"},
				})
				return
			}
			types.AbortWithError(c, err, "Failed to read speaker summary")
			return
		}

		var last *models.AggregationRun
		if deps.Runs != nil {
			last, err = deps.Runs.Latest(ctx)
			if err != nil && deps.Log != nil {
				deps.Log.Warn("could not load latest aggregation run", "error", err)
			}
		}

		c.JSON(http.StatusOK, types.SpeakersResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Summary:      summary,
			LastRun:      last,
		})
	}
}
