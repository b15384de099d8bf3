package websocket

import "github.com/sparta-academy/sparta-backend/internal/exam"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer  Action = "answer"
	ActionAdvance Action = "advance"
	ActionPing    Action = "ping"
)

// RequestPayload carries every client action. Label is only meaningful for
// the answer action.
type RequestPayload struct {
	Action Action `json:"action"`
	Label  string `json:"label,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick     Event = "tick"
	EventQuestion Event = "question"
	EventFinished Event = "finished"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// TickResponse is pushed once per second while the attempt runs.
type TickResponse struct {
	Event     Event `json:"event"`
	Remaining int   `json:"time_remaining_seconds"`
}

// QuestionResponse is sent after answer/advance so the client renders the
// current question without polling.
type QuestionResponse struct {
	Event    Event              `json:"event"`
	Question *exam.QuestionView `json:"question"`
}

// FinishedResponse delivers the graded result, whether the aspirant finished
// or the countdown ran out.
type FinishedResponse struct {
	Event    Event        `json:"event"`
	TimedOut bool         `json:"timed_out"`
	Result   *exam.Result `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
