package routes

import (
	"net/http"

	"healthcare-portal/internal/config"
	"healthcare-portal/internal/handlers"
	"healthcare-portal/internal/metrics"
	"healthcare-portal/internal/middleware"
	"healthcare-portal/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, registry *views.Registry, cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) {
	// Initialize handlers
	viewHandler := handlers.NewViewHandler(registry, cfg.LoginPath, logger)
	calendarHandler := handlers.NewCalendarHandler(registry, cfg.LoginPath, logger)
	consultationHandler := handlers.NewConsultationHandler(registry, cfg.LoginPath, logger)

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		private.POST("/view", viewHandler.Mount)
		private.DELETE("/view", viewHandler.Unmount) // ?logout=true also clears clinical credentials

		calendarRoutes := private.Group("/calendar")
		{
			calendarRoutes.GET("", calendarHandler.GetCalendar)
			calendarRoutes.GET("/month", calendarHandler.GetMonth)
			calendarRoutes.GET("/day", calendarHandler.GetDay)
			calendarRoutes.POST("/previous", calendarHandler.PreviousMonth)
			calendarRoutes.POST("/next", calendarHandler.NextMonth)
			calendarRoutes.POST("/today", calendarHandler.Today)
			calendarRoutes.POST("/select", calendarHandler.SelectDay)
			calendarRoutes.PUT("/mode", calendarHandler.SetViewMode)
			calendarRoutes.POST("/appointments/:id/click", calendarHandler.ClickAppointment)
		}

		// Triage feed (clinicians only)
		consultationRoutes := private.Group("/consultations")
		consultationRoutes.Use(middleware.RoleAuthMiddleware(cfg.FeedRoles...))
		{
			consultationRoutes.GET("", consultationHandler.GetFeed)
			consultationRoutes.PUT("/selected", consultationHandler.SelectConsultation)
			consultationRoutes.GET("/selected", consultationHandler.GetSelected)
			consultationRoutes.DELETE("/selected", consultationHandler.ClearSelection)
		}
	}

	router.GET("/metrics", gin.WrapH(collector.Handler()))

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
}
