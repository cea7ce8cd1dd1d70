package sessions

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/diarist/api/types"
)

// RegisterRoutes registers session routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// GET /api/v1/sessions?status=completed
	router.GET("", List(deps))

	// GET /api/v1/sessions/:name - Session with its transcript
	router.GET("/:name", Get(deps))
}
