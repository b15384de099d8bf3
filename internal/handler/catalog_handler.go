package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sparta-academy/sparta-backend/internal/middleware"
	"github.com/sparta-academy/sparta-backend/internal/response"
	"github.com/sparta-academy/sparta-backend/internal/service"
)

// CatalogHandler serves the aspirant-facing university and subject catalog.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListUniversities godoc
// GET /api/v1/student/universities
// Returns every university with the aspirant's access flag. Locked entries
// render greyed out in the picker.
func (h *CatalogHandler) ListUniversities(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	universities, err := h.catalogService.ListUniversitiesFor(c.Request.Context(), claims.Universities)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"universities": universities})
}

// ListSubjects godoc
// GET /api/v1/student/universities/:code/subjects
// Returns the subjects of one university with each bank's size. Requires
// access to that university.
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	code := c.Param("code")
	if !hasUniversityAccess(claims, code) {
		response.Fail(c, http.StatusForbidden, response.ErrUniversityAccessDenied)
		return
	}

	subjects, err := h.catalogService.ListSubjects(c.Request.Context(), code)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}

// hasUniversityAccess reports whether the token grants entry to a university.
func hasUniversityAccess(claims *service.Claims, code string) bool {
	for _, granted := range claims.Universities {
		if granted == code {
			return true
		}
	}
	return false
}
