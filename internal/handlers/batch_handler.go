package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-variant-service/internal/models"
	"github.com/SAP-F-2025/exam-variant-service/internal/repositories"
	"github.com/SAP-F-2025/exam-variant-service/internal/services"
	"github.com/SAP-F-2025/exam-variant-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type BatchHandler struct {
	BaseHandler
	service services.VariantService
}

func NewBatchHandler(service services.VariantService, logger utils.Logger) *BatchHandler {
	return &BatchHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== GENERATION =====

// GenerateBatch builds a new batch of exam variants
// @Summary Generate a variant batch
// @Tags batches
// @Accept json
// @Produce json
// @Param request body services.GenerateBatchRequest true "Batch request"
// @Success 201 {object} services.BatchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Structural defect in a question"
// @Router /batches [post]
func (h *BatchHandler) GenerateBatch(c *gin.Context) {
	var req services.GenerateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Generating variant batch", "questions", len(req.QuestionIDs), "students", req.StudentCount)

	resp, err := h.service.GenerateBatch(c.Request.Context(), &req, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ReplayBatch regenerates a batch and compares it with its stored answer keys
// @Summary Replay a batch
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse "Replay differs from stored bundle"
// @Router /batches/{id}/replay [post]
func (h *BatchHandler) ReplayBatch(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	h.LogRequest(c, "Replaying batch", "batch_id", id)

	if err := h.service.ReplayBatch(c.Request.Context(), id, user); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Replay matches stored answer keys",
		Data:    gin.H{"batch_id": id},
	})
}

// ===== QUERIES =====

// GetBatch
// @Summary Get a batch
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} services.BatchResponse
// @Failure 404 {object} ErrorResponse
// @Router /batches/{id} [get]
func (h *BatchHandler) GetBatch(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	resp, err := h.service.GetBatch(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListBatches
// @Summary List batches
// @Tags batches
// @Produce json
// @Param status query string false "done or failed"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.BatchListResponse
// @Router /batches [get]
func (h *BatchHandler) ListBatches(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	filters, err := h.parseBatchFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid filters",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Listing batches")

	resp, err := h.service.ListBatches(c.Request.Context(), filters, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListVariants returns the code, index and fingerprint of every variant
// @Summary List variants of a batch
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {array} services.VariantSummary
// @Router /batches/{id}/variants [get]
func (h *BatchHandler) ListVariants(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	resp, err := h.service.ListVariants(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetStudentVariant returns one student's exam without answers
// @Summary Get a student variant
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Param code path string true "Variant code"
// @Success 200 {object} variant.ExamVariant
// @Failure 404 {object} ErrorResponse
// @Router /batches/{id}/variants/{code} [get]
func (h *BatchHandler) GetStudentVariant(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	resp, err := h.service.GetStudentVariant(c.Request.Context(), c.Param("id"), c.Param("code"), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetMasterVariant returns the annotated instructor copy
// @Summary Get the master variant
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} variant.ExamVariant
// @Router /batches/{id}/master [get]
func (h *BatchHandler) GetMasterVariant(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	resp, err := h.service.GetMasterVariant(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ===== ANSWER KEYS =====

// GetAnswerKeyBundle serves the consolidated answer key bundle byte for byte
// @Summary Get the answer key bundle
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} variant.AnswerKeyBundle
// @Router /batches/{id}/answer-key [get]
func (h *BatchHandler) GetAnswerKeyBundle(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	h.LogRequest(c, "Reading answer key bundle", "batch_id", id)

	data, err := h.service.GetAnswerKeyBundle(c.Request.Context(), id, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// ExportAnswerKeys
// @Summary Download the answer keys as a spreadsheet
// @Tags batches
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Batch ID"
// @Success 200 {file} file
// @Router /batches/{id}/answer-key.xlsx [get]
func (h *BatchHandler) ExportAnswerKeys(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	h.LogRequest(c, "Exporting answer keys", "batch_id", id)

	data, err := h.service.ExportAnswerKeys(c.Request.Context(), id, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="answer-keys-%s.xlsx"`, id))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// VerifyVariant checks a printed variant against its batch
// @Summary Verify a variant fingerprint
// @Tags batches
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param request body services.VerifyVariantRequest true "Code and printed fingerprint"
// @Success 200 {object} services.VerifyVariantResponse
// @Router /batches/{id}/verify [post]
func (h *BatchHandler) VerifyVariant(c *gin.Context) {
	var req services.VerifyVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	resp, err := h.service.VerifyVariant(c.Request.Context(), c.Param("id"), &req, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ===== HELPERS =====

func (h *BatchHandler) parseBatchFilters(c *gin.Context) (repositories.BatchFilters, error) {
	filters := repositories.BatchFilters{
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}

	if s := c.Query("status"); s != "" {
		status := models.BatchStatus(s)
		if status != models.BatchStatusDone && status != models.BatchStatusFailed {
			return filters, fmt.Errorf("unknown status %q", s)
		}
		filters.Status = &status
	}
	if s := c.Query("date_from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filters, fmt.Errorf("date_from: %w", err)
		}
		filters.DateFrom = &t
	}
	if s := c.Query("date_to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filters, fmt.Errorf("date_to: %w", err)
		}
		filters.DateTo = &t
	}
	return filters, nil
}
