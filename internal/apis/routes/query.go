package routes

import (
	"log"

	"github.com/gin-gonic/gin"

	"querypilot/internal/di"
)

func SetupQueryRoutes(router *gin.Engine) {
	queryHandler, err := di.GetQueryHandler()
	if err != nil {
		log.Fatalf("Failed to get query handler: %v", err)
	}

	api := router.Group("/api")
	{
		api.POST("/query", queryHandler.ProcessQuery)
		api.POST("/schema", queryHandler.GetSchema)
	}
}
