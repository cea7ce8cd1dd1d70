package sessions

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/diarist/api/types"
	sessionsService "github.com/killallgit/diarist/internal/services/sessions"
)

// Get returns one session with its transcript
// @Summary      Get session
// @Description  Returns a session and its transcript entries sorted by start time. Completed sessions carry durable speaker names.
// @Tags         sessions
// @Produce      json
// @Param        name  path      string  true  "Session name"
// @Success      200   {object}  types.SessionResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      404   {object}  types.ErrorResponse
// @Router       /api/v1/sessions/{name} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps == nil || deps.Sessions == nil {
			types.Unavailable(c, "session store")
			return
		}

		name := c.Param("name")
		if err := sessionsService.ValidateName(name); err != nil {
			types.AbortWithError(c, err, "")
			return
		}

		ctx := c.Request.Context()
		session, err := deps.Sessions.Get(ctx, name)
		if err != nil {
			types.AbortWithError(c, err, "Failed to fetch session")
			return
		}
		entries, err := deps.Sessions.Entries(ctx, name)
		if err != nil {
			types.AbortWithError(c, err, "Failed to fetch transcript")
			return
		}
		sessionsService.SortByStart(entries)

		mapping := session.Mapping()
		response := types.SessionResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Session:      types.NewSession(session),
			Entries:      make([]types.TranscriptEntry, 0, len(entries)),
		}
		for _, e := range entries {
			response.Entries = append(response.Entries, types.NewTranscriptEntry(e, mapping))
		}
		c.JSON(http.StatusOK, response)
	}
}
