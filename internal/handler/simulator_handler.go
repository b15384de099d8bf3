package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sparta-academy/sparta-backend/internal/exam"
	"github.com/sparta-academy/sparta-backend/internal/middleware"
	"github.com/sparta-academy/sparta-backend/internal/model"
	"github.com/sparta-academy/sparta-backend/internal/response"
	"github.com/sparta-academy/sparta-backend/internal/service"
	"github.com/sparta-academy/sparta-backend/internal/validator"
)

// SimulatorHandler drives the aspirant's exam attempt over HTTP. The
// WebSocket stream carries the countdown; these endpoints carry the
// lifecycle and work without the socket.
type SimulatorHandler struct {
	simulator      *service.SimulatorService
	attemptService *service.AttemptService
}

// NewSimulatorHandler creates a new SimulatorHandler.
func NewSimulatorHandler(simulator *service.SimulatorService, attemptService *service.AttemptService) *SimulatorHandler {
	return &SimulatorHandler{simulator: simulator, attemptService: attemptService}
}

func identityFromClaims(claims *service.Claims) exam.Identity {
	return exam.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Name:     claims.Name,
		City:     claims.City,
	}
}

// GetExam godoc
// GET /api/v1/student/exam
// Returns the current session snapshot: state, countdown, current question
// while running, result once finished. Reconnecting clients call this to
// re-render.
func (h *SimulatorHandler) GetExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	snap := h.simulator.Snapshot(identityFromClaims(claims))
	response.Success(c, http.StatusOK, gin.H{"exam": snap})
}

// SelectSubject godoc
// POST /api/v1/student/exam/subject
// Binds the session to a university subject. Only valid before the attempt
// starts.
func (h *SimulatorHandler) SelectSubject(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SelectSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if !hasUniversityAccess(claims, req.UniversityCode) {
		response.Fail(c, http.StatusForbidden, response.ErrUniversityAccessDenied)
		return
	}

	if err := h.simulator.SelectSubject(identityFromClaims(claims), req.UniversityCode, req.Subject); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrExamNotFinished)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": h.simulator.Snapshot(identityFromClaims(claims))})
}

// StartExam godoc
// POST /api/v1/student/exam/start
// Draws the question set and arms the countdown. On a bank failure the
// session stays ready and the aspirant can retry.
func (h *SimulatorHandler) StartExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	identity := identityFromClaims(claims)
	if err := h.simulator.StartExam(c.Request.Context(), identity); err != nil {
		switch {
		case errors.Is(err, exam.ErrBankUnavailable):
			response.Fail(c, http.StatusServiceUnavailable, response.ErrBankUnavailable)
		case errors.Is(err, exam.ErrInvalidTransition):
			response.Fail(c, http.StatusConflict, response.ErrSubjectRequired)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": h.simulator.Snapshot(identity)})
}

// SelectAnswer godoc
// POST /api/v1/student/exam/answer
// Records or overwrites the answer to the current question.
func (h *SimulatorHandler) SelectAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	identity := identityFromClaims(claims)
	if err := h.simulator.SelectAnswer(identity, req.Label); err != nil {
		switch {
		case errors.Is(err, exam.ErrInvalidLabel):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidOption)
		case errors.Is(err, exam.ErrInvalidTransition):
			response.Fail(c, http.StatusConflict, response.ErrExamNotInProgress)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": h.simulator.Snapshot(identity)})
}

// Advance godoc
// POST /api/v1/student/exam/advance
// Moves to the next question. On the last question this finalizes and
// grades the attempt; the response then carries the result.
func (h *SimulatorHandler) Advance(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	identity := identityFromClaims(claims)
	result, err := h.simulator.Advance(identity)
	if err != nil {
		if errors.Is(err, exam.ErrInvalidTransition) {
			response.Fail(c, http.StatusConflict, response.ErrExamNotInProgress)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	payload := gin.H{"exam": h.simulator.Snapshot(identity)}
	if result != nil {
		payload["result"] = result
	}
	response.Success(c, http.StatusOK, payload)
}

// GetResult godoc
// GET /api/v1/student/exam/result
// Returns the graded outcome of a finished attempt.
func (h *SimulatorHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	result, err := h.simulator.Result(identityFromClaims(claims))
	if err != nil {
		response.Fail(c, http.StatusConflict, response.ErrExamNotFinished)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Restart godoc
// POST /api/v1/student/exam/restart
// Clears a finished attempt back to idle so a new one can begin.
func (h *SimulatorHandler) Restart(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	identity := identityFromClaims(claims)
	if err := h.simulator.Restart(identity); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrExamNotFinished)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": h.simulator.Snapshot(identity)})
}

// ListOwnAttempts godoc
// GET /api/v1/student/attempts
// Returns the aspirant's own recent attempt history.
func (h *SimulatorHandler) ListOwnAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.attemptService.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}
