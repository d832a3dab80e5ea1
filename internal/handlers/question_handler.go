package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-variant-service/internal/questionfile"
	"github.com/SAP-F-2025/exam-variant-service/internal/repositories"
	"github.com/SAP-F-2025/exam-variant-service/internal/services"
	"github.com/SAP-F-2025/exam-variant-service/internal/utils"
)

// maxImportSize bounds an uploaded question file.
const maxImportSize = 8 << 20

type QuestionHandler struct {
	BaseHandler
	service services.QuestionService
}

func NewQuestionHandler(service services.QuestionService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== CORE CRUD ENDPOINTS =====

// CreateQuestion
// @Summary Create a question
// @Tags questions
// @Accept json
// @Produce json
// @Param request body services.CreateQuestionRequest true "Question"
// @Success 201 {object} services.QuestionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req services.CreateQuestionRequest
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

	h.LogRequest(c, "Creating question", "question_id", req.ID)

	resp, err := h.service.Create(c.Request.Context(), &req, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ImportQuestions stores every question of an uploaded JSON or YAML file
// @Summary Import a question file
// @Tags questions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Question file (.json, .yaml, .yml)"
// @Success 201 {object} services.ImportQuestionsResponse
// @Failure 400 {object} ErrorResponse
// @Router /questions/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Question file is required",
			Details: err.Error(),
		})
		return
	}
	if header.Size > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: "Question file too large",
		})
		return
	}

	format, err := questionfile.FormatFromPath(header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported question file",
			Details: err.Error(),
		})
		return
	}

	f, err := header.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImportSize))
	if err != nil {
		h.LogError(c, err, "Failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}

	doc, err := questionfile.Parse(data, format)
	if err != nil {
		if errors.Is(err, questionfile.ErrInvalidFile) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid question file",
				Details: err.Error(),
			})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Importing questions", "file", header.Filename, "count", len(doc.Questions))

	resp, err := h.service.Import(c.Request.Context(), doc.Questions, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetQuestion
// @Summary Get a question
// @Tags questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} services.QuestionResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListQuestions
// @Summary List questions
// @Tags questions
// @Produce json
// @Param kind query string false "Question kind"
// @Param mine query bool false "Only questions created by the caller"
// @Success 200 {object} services.QuestionListResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	resp, err := h.service.List(c.Request.Context(), h.parseQuestionFilters(c, user.ID), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteQuestion
// @Summary Delete a question
// @Tags questions
// @Param id path string true "Question ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	h.LogRequest(c, "Deleting question", "question_id", id)

	if err := h.service.Delete(c.Request.Context(), id, user); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *QuestionHandler) parseQuestionFilters(c *gin.Context, userID string) repositories.QuestionFilters {
	filters := repositories.QuestionFilters{
		Limit:     queryInt(c, "limit", 50),
		Offset:    queryInt(c, "offset", 0),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: strings.ToLower(c.DefaultQuery("sort_order", "desc")),
	}
	if kind := c.Query("kind"); kind != "" {
		filters.Kind = &kind
	}
	if c.Query("mine") == "true" {
		filters.CreatedBy = &userID
	}
	return filters
}
