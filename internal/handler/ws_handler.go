package handler

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sparta-academy/sparta-backend/internal/exam"
	"github.com/sparta-academy/sparta-backend/internal/middleware"
	"github.com/sparta-academy/sparta-backend/internal/service"
	ws "github.com/sparta-academy/sparta-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live attempt over WebSocket: the server pushes the
// countdown and state changes, the client sends answer/advance actions.
type WSHandler struct {
	simulator *service.SimulatorService
	log       zerolog.Logger
	upgrader  websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(simulator *service.SimulatorService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		simulator: simulator,
		log:       log.With().Str("component", "ws_handler").Logger(),
		upgrader:  buildUpgrader(allowedOrigins),
	}
}

// ExamStream godoc
// WS /ws/v1/exam/stream
// Upgrades to WebSocket for the live countdown and in-exam actions. The
// attempt itself lives server-side; dropping the socket does not pause it.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	identity := exam.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Name:     claims.Name,
		City:     claims.City,
	}
	session := h.simulator.Session(identity)

	wsLog := h.log.With().Int("user_id", claims.UserID).Logger()
	wsLog.Info().Msg("Aspirant connected")

	// Writes come from two goroutines (pusher and read loop); gorilla
	// connections allow one concurrent writer.
	var writeMu sync.Mutex
	write := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return ws.WriteTyped(conn, v)
	}

	done := make(chan struct{})
	go h.pushLoop(session, write, done, wsLog)
	defer close(done)

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(session, write, msg.Label)
		case ws.ActionAdvance:
			h.handleAdvance(session, write, wsLog)
		case ws.ActionPing:
			write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			write(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)})
		}
	}
}

// pushLoop sends a tick every second while the attempt runs and a finished
// event the moment the state flips, covering countdown expiry.
func (h *WSHandler) pushLoop(session *exam.Session, write func(interface{}) error, done <-chan struct{}, wsLog zerolog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastState exam.State
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := session.Snapshot()

			if snap.State == exam.StateInProgress {
				if err := write(ws.TickResponse{Event: ws.EventTick, Remaining: snap.Remaining}); err != nil {
					return
				}
			}

			// User-driven finishes are answered inline by handleAdvance;
			// the pusher only announces countdown expiry.
			if snap.State == exam.StateFinished && lastState == exam.StateInProgress && snap.Result.TimedOut {
				wsLog.Info().Msg("Countdown expired, attempt auto-submitted")
				if err := write(ws.FinishedResponse{
					Event:    ws.EventFinished,
					TimedOut: snap.Result.TimedOut,
					Result:   snap.Result,
				}); err != nil {
					return
				}
			}
			lastState = snap.State
		}
	}
}

func (h *WSHandler) handleAnswer(session *exam.Session, write func(interface{}) error, label string) {
	if label == "" {
		write(ws.ErrorResponse{Event: ws.EventError, Error: "label is required"})
		return
	}

	if err := session.SelectAnswer(label); err != nil {
		write(ws.ErrorResponse{Event: ws.EventError, Error: err.Error()})
		return
	}

	snap := session.Snapshot()
	write(ws.QuestionResponse{Event: ws.EventQuestion, Question: snap.Question})
}

func (h *WSHandler) handleAdvance(session *exam.Session, write func(interface{}) error, wsLog zerolog.Logger) {
	result, err := session.Advance()
	if err != nil {
		if errors.Is(err, exam.ErrInvalidTransition) {
			write(ws.ErrorResponse{Event: ws.EventError, Error: "no attempt in progress"})
		} else {
			write(ws.ErrorResponse{Event: ws.EventError, Error: err.Error()})
		}
		return
	}

	if result != nil {
		wsLog.Info().Int("score", result.Score).Msg("Attempt submitted and graded")
		write(ws.FinishedResponse{Event: ws.EventFinished, TimedOut: false, Result: result})
		return
	}

	snap := session.Snapshot()
	write(ws.QuestionResponse{Event: ws.EventQuestion, Question: snap.Question})
}
