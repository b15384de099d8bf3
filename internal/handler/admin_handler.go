package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sparta-academy/sparta-backend/internal/model"
	"github.com/sparta-academy/sparta-backend/internal/response"
	"github.com/sparta-academy/sparta-backend/internal/service"
	"github.com/sparta-academy/sparta-backend/internal/validator"
)

// AdminHandler serves the results board and catalog management.
type AdminHandler struct {
	attemptService *service.AttemptService
	catalogService *service.CatalogService
	userService    *service.UserService
	authService    *service.AuthService
	simulator      *service.SimulatorService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	attemptService *service.AttemptService,
	catalogService *service.CatalogService,
	userService *service.UserService,
	authService *service.AuthService,
	simulator *service.SimulatorService,
) *AdminHandler {
	return &AdminHandler{
		attemptService: attemptService,
		catalogService: catalogService,
		userService:    userService,
		authService:    authService,
		simulator:      simulator,
	}
}

// ListAttempts godoc
// GET /api/v1/admin/attempts?university_code=&subject=&search=&page=&per_page=
// Returns attempts newest first, filterable by university, subject and
// aspirant name or username.
func (h *AdminHandler) ListAttempts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	filter := model.AttemptFilter{
		UniversityCode: c.Query("university_code"),
		Subject:        c.Query("subject"),
		Search:         c.Query("search"),
	}

	attempts, pagination, err := h.attemptService.List(c.Request.Context(), filter, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attempts": attempts}, pagination)
}

// GetAttempt godoc
// GET /api/v1/admin/attempts/:id
// Returns one attempt including its full answer review.
func (h *AdminHandler) GetAttempt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetSummary godoc
// GET /api/v1/admin/summary
// Returns per-subject aggregates: attempt count, average, best score and
// distinct aspirants.
func (h *AdminHandler) GetSummary(c *gin.Context) {
	summary, err := h.attemptService.Summary(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}

// ListStudents godoc
// GET /api/v1/admin/students
// Returns every aspirant account with their university access.
func (h *AdminHandler) ListStudents(c *gin.Context) {
	students, err := h.userService.ListStudents(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// ResetStudentSession godoc
// POST /api/v1/admin/students/:id/reset-session
// Releases an aspirant's single-device lock and drops their live exam
// session, so they can log in again after losing a device.
func (h *AdminHandler) ResetStudentSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.authService.ResetStudentSession(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	h.simulator.Drop(id)

	response.Success(c, http.StatusOK, gin.H{})
}

// CreateSubject godoc
// POST /api/v1/admin/subjects
func (h *AdminHandler) CreateSubject(c *gin.Context) {
	var req model.CreateSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	subject, err := h.catalogService.CreateSubject(c.Request.Context(), req.UniversityCode, req.Name)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"subject": subject})
}

// UpdateSubject godoc
// PUT /api/v1/admin/subjects/:id
func (h *AdminHandler) UpdateSubject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	subject, err := h.catalogService.UpdateSubject(c.Request.Context(), id, req.Name)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"subject": subject})
}

// DeleteSubject godoc
// DELETE /api/v1/admin/subjects/:id
func (h *AdminHandler) DeleteSubject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.catalogService.DeleteSubject(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
