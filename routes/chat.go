package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-sales-brain/internal/logger"
	"ai-sales-brain/internal/telemetry"
	"ai-sales-brain/middleware"
	"ai-sales-brain/models"
	"ai-sales-brain/services"
	"ai-sales-brain/utils"
)

type ChatRoutes struct {
	rag     *services.RagService
	metrics *telemetry.Metrics
}

func NewChatRoutes(rag *services.RagService, metrics *telemetry.Metrics) *ChatRoutes {
	return &ChatRoutes{rag: rag, metrics: metrics}
}

func (r *ChatRoutes) Register(router *gin.Engine, authMiddleware *middleware.AuthMiddleware) {
	group := router.Group("/api/v1/chat")
	group.Use(authMiddleware.RequireAuth())

	group.POST("/query", r.handleQuery)
}

// handleQuery answers a question over the caller's documents.
func (r *ChatRoutes) handleQuery(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ChatQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
		return
	}

	resp, err := r.rag.Query(c.Request.Context(), userID, req)
	if err != nil {
		logger.Error("Chat query failed", "user_id", userID.Hex(), "error", err)
		utils.RespondWithInternalError(c, "Failed to answer query", nil)
		return
	}

	if r.metrics != nil {
		r.metrics.RecordQuery(resp.Confidence, int64(len(resp.Evidence)))
	}
	c.JSON(http.StatusOK, resp)
}
