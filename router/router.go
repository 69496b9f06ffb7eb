// api/router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerdash/ledgerdash/api/controller"
	"github.com/ledgerdash/ledgerdash/api/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))

	api := router.Group("/api/v1")

	controllers.Operations.RegisterRoutes(api)
	controllers.Metrics.RegisterRoutes(api)

	return router
}
