package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sparta-academy/sparta-backend/internal/middleware"
	"github.com/sparta-academy/sparta-backend/internal/model"
	"github.com/sparta-academy/sparta-backend/internal/response"
	"github.com/sparta-academy/sparta-backend/internal/service"
	"github.com/sparta-academy/sparta-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	simulator   *service.SimulatorService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	userService *service.UserService,
	simulator *service.SimulatorService,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		simulator:   simulator,
	}
}

// Login godoc
// POST /api/v1/auth/login
// Validates username + password and returns a JWT. Aspirants get a
// single-device token: a second login is rejected while a session is active.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(user.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	var token string
	if user.Role == model.RoleAdmin {
		token, err = h.authService.GenerateAdminToken(user.ID, user.Username, user.Name)
	} else {
		token, err = h.authService.GenerateStudentToken(c.Request.Context(), user.ID, user.Username, user.Name, user.City, user.Universities)
	}
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"name":         user.Name,
			"city":         user.City,
			"role":         user.Role,
			"universities": user.Universities,
		},
	})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"name":         user.Name,
			"city":         user.City,
			"role":         user.Role,
			"universities": user.Universities,
		},
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Releases the aspirant's single-device session and drops their live exam
// session, if any.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if claims.TokenType == service.TokenTypeStudent {
		if err := h.authService.ResetStudentSession(c.Request.Context(), claims.UserID); err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		h.simulator.Drop(claims.UserID)
	}

	response.Success(c, http.StatusOK, gin.H{})
}
