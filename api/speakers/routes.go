package speakers

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/diarist/api/types"
)

// RegisterRoutes registers speaker registry routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("", Get(deps))
}
