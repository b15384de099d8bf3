package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sparta-academy/sparta-backend/internal/config"
	"github.com/sparta-academy/sparta-backend/internal/exam"
	"github.com/sparta-academy/sparta-backend/internal/middleware"
	"github.com/sparta-academy/sparta-backend/internal/response"
	"github.com/sparta-academy/sparta-backend/internal/service"
	"github.com/sparta-academy/sparta-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySource struct {
	bank []exam.Question
	err  error
}

func (m *memorySource) Fetch(_ context.Context, _, _ string) ([]exam.Question, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.bank, nil
}

type memoryStore struct{}

func (m *memoryStore) Record(_ context.Context, _ *exam.Record) error { return nil }

func testBank(n int) []exam.Question {
	bank := make([]exam.Question, n)
	for i := range bank {
		bank[i] = exam.Question{
			Prompt:       fmt.Sprintf("Pregunta %d", i+1),
			Options:      map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
			CorrectLabel: "B",
		}
	}
	return bank
}

// withClaims stamps aspirant claims the way the JWT middleware would.
func withClaims(universities ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{
			TokenType:    service.TokenTypeStudent,
			UserID:       7,
			Username:     "maria.quispe",
			Name:         "María Quispe",
			City:         "Quito",
			Universities: universities,
		})
		c.Next()
	}
}

func newTestRouter(t *testing.T, source exam.QuestionSource) (*gin.Engine, *service.SimulatorService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	cfg := &config.Config{QuestionCap: 50, SessionDuration: time.Hour, MaxScore: 1000}
	simulator := service.NewSimulatorService(cfg, source, &memoryStore{})
	t.Cleanup(simulator.CloseAll)

	h := NewSimulatorHandler(simulator, nil)

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	student := r.Group("/api/v1/student", withClaims("UPEC"))
	{
		student.GET("/exam", h.GetExam)
		student.POST("/exam/subject", h.SelectSubject)
		student.POST("/exam/start", h.StartExam)
		student.POST("/exam/answer", h.SelectAnswer)
		student.POST("/exam/advance", h.Advance)
		student.GET("/exam/result", h.GetResult)
		student.POST("/exam/restart", h.Restart)
	}
	return r, simulator
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestExamSnapshotStartsIdle(t *testing.T) {
	r, _ := newTestRouter(t, &memorySource{bank: testBank(5)})

	w := doJSON(t, r, http.MethodGet, "/api/v1/student/exam", nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var data struct {
		Exam exam.Snapshot `json:"exam"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, exam.StateIdle, data.Exam.State)
}

func TestSelectSubjectRequiresAccess(t *testing.T) {
	r, _ := newTestRouter(t, &memorySource{bank: testBank(5)})

	w := doJSON(t, r, http.MethodPost, "/api/v1/student/exam/subject", gin.H{
		"university_code": "EPN",
		"subject":         "Matemáticas",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNIVERSITY_ACCESS_DENIED", env.Error.Code)
}

func TestSelectSubjectValidation(t *testing.T) {
	r, _ := newTestRouter(t, &memorySource{bank: testBank(5)})

	w := doJSON(t, r, http.MethodPost, "/api/v1/student/exam/subject", gin.H{
		"university_code": "UPEC",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestStartWithoutSubjectConflicts(t *testing.T) {
	r, _ := newTestRouter(t, &memorySource{bank: testBank(5)})

	w := doJSON(t, r, http.MethodPost, "/api/v1/student/exam/start", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SUBJECT_REQUIRED", env.Error.Code)
}

func TestStartWithEmptyBankIsRetryable(t *testing.T) {
	r, _ := newTestRouter(t, &memorySource{bank: nil})

	w := doJSON(t, r, http.MethodPost, "/api/v1/student/exam/subject", gin.H{
		"university_code": "UPEC",
		"subject":         "Matemáticas",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/student/exam/start", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "QUESTION_BANK_UNAVAILABLE", env.Error.Code)

	// The session is still ready: the snapshot keeps the chosen subject.
	w = doJSON(t, r, http.MethodGet, "/api/v1/student/exam", nil)
	env = decodeEnvelope(t, w)
	var data struct {
		Exam exam.Snapshot `json:"exam"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, exam.StateReady, data.Exam.State)
	assert.Equal(t, "Matemáticas", data.Exam.Subject)
}

func TestHappyPathOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t, &memorySource{bank: testBank(3)})

	w := doJSON(t, r, http.MethodPost, "/api/v1/student/exam/subject", gin.H{
		"university_code": "UPEC",
		"subject":         "Matemáticas",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/student/exam/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var started struct {
		Exam exam.Snapshot `json:"exam"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	require.Equal(t, exam.StateInProgress, started.Exam.State)
	require.NotNil(t, started.Exam.Question)
	assert.Equal(t, 3, started.Exam.Question.Total)
	assert.Empty(t, started.Exam.Question.Selected)

	// Answer all three with the correct label.
	for i := 0; i < 3; i++ {
		w = doJSON(t, r, http.MethodPost, "/api/v1/student/exam/answer", gin.H{"label": "B"})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, r, http.MethodPost, "/api/v1/student/exam/advance", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	env = decodeEnvelope(t, w)
	var finished struct {
		Exam   exam.Snapshot `json:"exam"`
		Result *exam.Result  `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &finished))
	assert.Equal(t, exam.StateFinished, finished.Exam.State)
	require.NotNil(t, finished.Result)
	assert.Equal(t, 1000, finished.Result.Score)
	assert.Equal(t, 3, finished.Result.Correct)

	// Result endpoint serves the same outcome.
	w = doJSON(t, r, http.MethodGet, "/api/v1/student/exam/result", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Restart goes back to idle.
	w = doJSON(t, r, http.MethodPost, "/api/v1/student/exam/restart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeEnvelope(t, w)
	var restarted struct {
		Exam exam.Snapshot `json:"exam"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &restarted))
	assert.Equal(t, exam.StateIdle, restarted.Exam.State)
}

func TestInvalidAnswerLabelOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t, &memorySource{bank: testBank(3)})

	doJSON(t, r, http.MethodPost, "/api/v1/student/exam/subject", gin.H{
		"university_code": "UPEC",
		"subject":         "Matemáticas",
	})
	doJSON(t, r, http.MethodPost, "/api/v1/student/exam/start", nil)

	w := doJSON(t, r, http.MethodPost, "/api/v1/student/exam/answer", gin.H{"label": "Z"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_OPTION", env.Error.Code)
}

func TestResultBeforeFinishConflicts(t *testing.T) {
	r, _ := newTestRouter(t, &memorySource{bank: testBank(3)})

	w := doJSON(t, r, http.MethodGet, "/api/v1/student/exam/result", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "EXAM_NOT_FINISHED", env.Error.Code)
}
