package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tablevote/internal/group"
	"tablevote/internal/middleware"
	"tablevote/internal/places"
)

func NewRouter(groupHandler *group.Handler, placesHandler *places.Handler, allowedOrigins []string) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check route
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	groups := r.Group("/api/groups")
	{
		groups.POST("", middleware.RequireMember(), groupHandler.CreateGroup)
		groups.GET("/:group_id", middleware.OptionalMember(), groupHandler.GetGroup)
		groups.GET("/:group_id/candidates", middleware.OptionalMember(), groupHandler.ListCandidates)
		groups.POST("/:group_id/vote", middleware.RequireMember(), groupHandler.SubmitVote)
		groups.POST("/:group_id/finish", middleware.RequireMember(), groupHandler.FinishGroup)
		groups.GET("/:group_id/results", groupHandler.GetResults)
	}

	restaurants := r.Group("/api/restaurants")
	{
		restaurants.POST("/search", middleware.RateLimit("10-M"), placesHandler.SearchRestaurants)
		restaurants.GET("/:place_id", middleware.RateLimit("20-M"), placesHandler.GetRestaurantDetails)
		restaurants.POST("/summarize", middleware.RateLimit("30-M"), placesHandler.SummarizeRestaurant)
	}

	return r
}
