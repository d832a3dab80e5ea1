package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-variant-service/internal/config"
	"github.com/SAP-F-2025/exam-variant-service/internal/models"
	"github.com/SAP-F-2025/exam-variant-service/internal/services"
	"github.com/SAP-F-2025/exam-variant-service/internal/utils"
)

type HandlerManager struct {
	batchHandler    *BatchHandler
	questionHandler *QuestionHandler
	authMiddleware  *CasdoorAuthMiddleware
	health          func(ctx context.Context) error
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
) *HandlerManager {
	return &HandlerManager{
		batchHandler:    NewBatchHandler(serviceManager.Variant(), logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), logger),
		authMiddleware:  NewCasdoorAuthMiddleware(casdoorConfig),
		health:          serviceManager.HealthCheck,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())

	// Everything below is instructor tooling.
	staff := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)

	questions := v1.Group("/questions", staff)
	{
		questions.POST("", hm.questionHandler.CreateQuestion)
		questions.POST("/import", hm.questionHandler.ImportQuestions)
		questions.GET("", hm.questionHandler.ListQuestions)
		questions.GET("/:id", hm.questionHandler.GetQuestion)
		questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
	}

	batches := v1.Group("/batches", staff)
	{
		batches.POST("", hm.batchHandler.GenerateBatch)
		batches.GET("", hm.batchHandler.ListBatches)
		batches.GET("/:id", hm.batchHandler.GetBatch)
		batches.GET("/:id/variants", hm.batchHandler.ListVariants)
		batches.GET("/:id/variants/:code", hm.batchHandler.GetStudentVariant)
		batches.GET("/:id/master", hm.batchHandler.GetMasterVariant)
		batches.GET("/:id/answer-key", hm.batchHandler.GetAnswerKeyBundle)
		batches.GET("/:id/answer-key.xlsx", hm.batchHandler.ExportAnswerKeys)
		batches.POST("/:id/verify", hm.batchHandler.VerifyVariant)
		batches.POST("/:id/replay", hm.batchHandler.ReplayBatch)
	}

	router.GET("/health", hm.healthCheck)
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "exam-variant-service",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "exam-variant-service",
	})
}
