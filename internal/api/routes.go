package api

import (
	"net/http"

	"alcyxob/intern-platform/internal/config"
	"alcyxob/intern-platform/internal/domain"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/service"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with the global middleware chain.
func NewRouter(cfg *config.Config, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(log), Recovery(log), CORSMiddleware(cfg.CORS.AllowedOrigins))
	return router
}

func SetupRoutes(
	router *gin.Engine,
	jwtCfg config.JWTConfig,
	log *logger.Logger,
	planService service.PlanService,
	dayService service.DayService,
	lessonCache service.LessonCache,
	assistantService service.AssistantService,
) {
	planHandler := NewStudyPlanHandler(planService, dayService, log)
	adminHandler := NewAdminHandler(planService, lessonCache, log)
	assistantHandler := NewAssistantHandler(assistantService, log)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	protected := router.Group("/api/v1")
	protected.Use(AuthMiddleware(jwtCfg.Secret, jwtCfg.Issuer))
	{
		protected.GET("/me", func(c *gin.Context) {
			actor, ok := actorFromContext(c)
			if !ok {
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": actor.ID.Hex(), "role": actor.Role})
		})

		// --- Study Plans ---
		plans := protected.Group("/study-plans")
		{
			plans.POST("", RoleMiddleware(domain.RoleStudent), planHandler.CreatePlan)
			plans.GET("/active", RoleMiddleware(domain.RoleStudent), planHandler.GetActivePlans)
			plans.GET("/history", RoleMiddleware(domain.RoleStudent), planHandler.GetPlanHistory)

			// Ownership is checked by the services.
			plans.GET("/:ref", planHandler.GetPlan)
			plans.PUT("/:ref/archive", RoleMiddleware(domain.RoleStudent, domain.RoleAdmin), planHandler.ArchivePlan)
			plans.GET("/:ref/days/:day", planHandler.GetDay)
			plans.POST("/:ref/days/:day/submit", RoleMiddleware(domain.RoleStudent), planHandler.SubmitDay)
		}

		protected.POST("/assistant/chat", assistantHandler.Chat)

		// --- Admin ---
		admin := protected.Group("/admin")
		admin.Use(RoleMiddleware(domain.RoleAdmin))
		{
			admin.GET("/study-plans", adminHandler.ListPlans)
			admin.DELETE("/study-plans/:id", adminHandler.DeletePlan)
			admin.GET("/lessons", adminHandler.ListLessons)
			admin.POST("/lessons/regenerate", adminHandler.RegenerateLesson)
			admin.GET("/lessons/:ref", adminHandler.GetLesson)
		}
	}
}
