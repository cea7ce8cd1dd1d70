package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Get handles version requests
// @Summary      Service information
// @Tags         version
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       / [get]
func Get(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "diarist",
			"version":     version,
			"description": "Read-only status API for the diarization and transcription pipeline",
			"status":      "running",
		})
	}
}
