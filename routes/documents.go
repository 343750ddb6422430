package routes

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ai-sales-brain/internal/logger"
	"ai-sales-brain/internal/queue"
	"ai-sales-brain/internal/store"
	"ai-sales-brain/middleware"
	"ai-sales-brain/models"
	"ai-sales-brain/services"
	"ai-sales-brain/utils"
)

type DocumentRoutes struct {
	documents  *store.DocumentStore
	chunks     *store.ChunkStore
	files      *services.FileService
	processing *services.DocumentProcessingService
	embedding  *services.EmbeddingService
	export     *services.ExportService
	queue      *queue.Client
}

func NewDocumentRoutes(
	documents *store.DocumentStore,
	chunks *store.ChunkStore,
	files *services.FileService,
	processing *services.DocumentProcessingService,
	embedding *services.EmbeddingService,
	export *services.ExportService,
	queueClient *queue.Client,
) *DocumentRoutes {
	return &DocumentRoutes{
		documents:  documents,
		chunks:     chunks,
		files:      files,
		processing: processing,
		embedding:  embedding,
		export:     export,
		queue:      queueClient,
	}
}

func (r *DocumentRoutes) Register(router *gin.Engine, authMiddleware *middleware.AuthMiddleware) {
	group := router.Group("/api/v1/documents")
	group.Use(authMiddleware.RequireAuth())

	group.POST("/upload", r.handleUpload)
	group.GET("", r.handleList)
	group.GET("/export", r.handleExport)
	group.GET("/:id", r.handleGet)
	group.DELETE("/:id", r.handleDelete)
}

// handleUpload accepts a document, registers it PENDING, and enqueues the
// ingestion task. Returns 202 immediately; processing happens in the
// worker.
func (r *DocumentRoutes) handleUpload(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.RespondWithBadRequest(c, "No file provided", nil)
		return
	}
	defer file.Close()

	if err := r.files.Validate(header); err != nil {
		switch {
		case errors.Is(err, services.ErrFileTooLarge):
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large", err.Error(), nil)
		case errors.Is(err, services.ErrUnsupportedType):
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file_type", err.Error(), nil)
		default:
			utils.RespondWithBadRequest(c, err.Error(), nil)
		}
		return
	}

	var dealID *primitive.ObjectID
	if raw := c.PostForm("deal_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid deal_id", nil)
			return
		}
		dealID = &id
	}

	storedName := services.StoredFileName(header.Filename)
	filePath, err := r.files.Save(file, userID.Hex(), storedName)
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to save file", nil)
		return
	}

	ctx, cancel := utils.WithLongTimeout(c.Request.Context())
	defer cancel()

	doc, err := r.processing.CreateDocument(ctx, userID, dealID,
		header.Filename, header.Header.Get("Content-Type"), header.Size, filePath)
	if err != nil {
		r.files.Remove(filePath)
		utils.RespondWithInternalError(c, "Failed to register document", nil)
		return
	}

	if err := r.queue.EnqueueDocumentProcess(doc.ID.Hex(), filePath); err != nil {
		logger.Error("Failed to enqueue document", "document_id", doc.ID.Hex(), "error", err)
		utils.RespondWithInternalError(c, "Failed to enqueue document for processing", nil)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "Document accepted for processing",
		"document": doc.ToResponse(),
	})
}

func (r *DocumentRoutes) handleList(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := utils.WithTimeout(c.Request.Context())
	defer cancel()

	docs, err := r.documents.ListByUser(ctx, userID)
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to list documents", nil)
		return
	}

	responses := make([]models.DocumentResponse, len(docs))
	for i := range docs {
		responses[i] = docs[i].ToResponse()
	}
	c.JSON(http.StatusOK, gin.H{"documents": responses, "count": len(responses)})
}

// handleGet returns one document's status. Other users' documents are
// indistinguishable from missing ones.
func (r *DocumentRoutes) handleGet(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	docID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.RespondWithBadRequest(c, "Invalid document ID", nil)
		return
	}

	ctx, cancel := utils.WithTimeout(c.Request.Context())
	defer cancel()

	doc, err := r.documents.FindByIDAndUser(ctx, docID, userID)
	if err != nil {
		utils.RespondWithNotFound(c, "Document not found")
		return
	}
	c.JSON(http.StatusOK, doc.ToResponse())
}

// handleDelete removes a document, its chunk rows, its vector entries,
// and the stored file.
func (r *DocumentRoutes) handleDelete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	docID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.RespondWithBadRequest(c, "Invalid document ID", nil)
		return
	}

	ctx, cancel := utils.WithLongTimeout(c.Request.Context())
	defer cancel()

	doc, err := r.documents.FindByIDAndUser(ctx, docID, userID)
	if err != nil {
		utils.RespondWithNotFound(c, "Document not found")
		return
	}

	chunkIDs, err := r.chunks.IDsByDocument(ctx, docID)
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to resolve document chunks", nil)
		return
	}
	r.embedding.DeleteChunks(ctx, chunkIDs)

	if err := r.chunks.DeleteByDocument(ctx, docID); err != nil {
		utils.RespondWithInternalError(c, "Failed to delete document chunks", nil)
		return
	}
	if err := r.documents.DeleteByIDAndUser(ctx, docID, userID); err != nil {
		utils.RespondWithInternalError(c, "Failed to delete document", nil)
		return
	}
	r.files.Remove(doc.FilePath)

	logger.Info("Document deleted", "document_id", docID.Hex(), "user_id", userID.Hex())
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted", "chunks_removed": len(chunkIDs)})
}

func (r *DocumentRoutes) handleExport(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	ctx, cancel := utils.WithLongTimeout(c.Request.Context())
	defer cancel()

	buf, count, err := r.export.ExportInventory(ctx, userID)
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to export documents", nil)
		return
	}

	fileName := fmt.Sprintf("documents-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Header("X-Record-Count", fmt.Sprintf("%d", count))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
