package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/diarist/api/types"
)

// Get handles health check requests
// @Summary      Health check
// @Description  Reports service liveness and session store connectivity
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}

		code := http.StatusOK
		db := getDatabaseStatus(deps)
		if db["status"] == "unhealthy" {
			response["status"] = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		response["database"] = db

		c.JSON(code, response)
	}
}

// getDatabaseStatus returns the database connection status
func getDatabaseStatus(deps *types.Dependencies) gin.H {
	if deps == nil || deps.DB == nil || deps.DB.DB == nil {
		return gin.H{"status": "not configured", "connected": false}
	}

	if err := deps.DB.HealthCheck(); err != nil {
		return gin.H{"status": "unhealthy", "connected": false, "error": err.Error()}
	}

	return gin.H{"status": "connected", "connected": true}
}
