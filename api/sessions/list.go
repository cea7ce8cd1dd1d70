package sessions

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/diarist/api/types"
	"github.com/killallgit/diarist/internal/models"
	perrors "github.com/killallgit/diarist/pkg/errors"
)

// List returns stored sessions, optionally filtered by status
// @Summary      List sessions
// @Description  Lists stored sessions ordered by name
// @Tags         sessions
// @Produce      json
// @Param        status  query     string  false  "Filter by status"  Enums(awaiting_speaker_assignment, completed)
// @Success      200     {object}  types.SessionsResponse
// @Failure      400     {object}  types.ErrorResponse
// @Failure      503     {object}  types.ErrorResponse
// @Router       /api/v1/sessions [get]
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps == nil || deps.Sessions == nil {
			types.Unavailable(c, "session store")
			return
		}

		var (
			stored []models.Session
			err    error
		)
		if status := c.Query("status"); status != "" {
			s := models.SessionStatus(status)
			if !s.Valid() {
				types.AbortWithError(c, perrors.Validation("list sessions", "unknown status %q", status), "")
				return
			}
			stored, err = deps.Sessions.ListByStatus(c.Request.Context(), s)
		} else {
			stored, err = deps.Sessions.List(c.Request.Context())
		}
		if err != nil {
			types.AbortWithError(c, err, "Failed to list sessions")
			return
		}

		response := types.SessionsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Sessions:     make([]types.Session, 0, len(stored)),
			Count:        len(stored),
		}
		for i := range stored {
			if stored[i].Status == models.StatusAwaitingAssignment {
				response.Awaiting++
			}
			response.Sessions = append(response.Sessions, types.NewSession(&stored[i]))
		}
		c.JSON(http.StatusOK, response)
	}
}
