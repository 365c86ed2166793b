package app

import (
	"nurseprep_backend/docs"
	"nurseprep_backend/internal/config"
	"nurseprep_backend/internal/middleware"
	"nurseprep_backend/internal/model"
	"nurseprep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 登录用户路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)

		// 题库浏览
		authGroup.GET("/qbanks", c.qbank.ListQBanks)
		authGroup.GET("/qbanks/:id", c.qbank.GetQBank)
		authGroup.GET("/qbanks/:id/questions", c.qbank.ListQuestions)

		// 测试会话
		attempts := authGroup.Group("/attempts")
		{
			attempts.POST("", c.attempt.CreateAttempt)
			attempts.GET("", c.attempt.ListAttempts)
			attempts.GET("/:id", c.attempt.GetAttempt)
			attempts.POST("/:id/start", c.attempt.StartAttempt)
			attempts.POST("/:id/finish", c.attempt.FinishAttempt)
			attempts.POST("/:id/abandon", c.attempt.AbandonAttempt)
			attempts.GET("/:id/review", c.attempt.ReviewAttempt)

			attempts.POST("/:id/questions/:questionId/visit", c.attempt.VisitQuestion)
			attempts.POST("/:id/questions/:questionId/answer", c.attempt.AnswerQuestion)
			attempts.PUT("/:id/questions/:questionId/flag", c.attempt.FlagQuestion)
			attempts.PUT("/:id/questions/:questionId/review-mark", c.attempt.MarkForReview)
		}

		// 教师/管理员：题库与题目管理、统计
		teacher := authGroup.Group("")
		teacher.Use(middleware.RoleMiddleware(model.Teacher))
		{
			teacher.POST("/qbanks", c.qbank.CreateQBank)
			teacher.PUT("/qbanks/:id", c.qbank.UpdateQBank)
			teacher.POST("/qbanks/:id/questions", c.qbank.CreateQuestion)
			teacher.PUT("/questions/:id", c.qbank.UpdateQuestion)
			teacher.GET("/qbanks/:id/stats", c.qbank.GetStats)
		}
	}
}
