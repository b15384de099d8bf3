// Package exam implements the timed exam attempt lifecycle for the
// simulator: subject selection, question drawing, the one-second countdown,
// answer capture, grading and attempt hand-off to the store.
package exam

import (
	"context"
	"errors"
	"time"
)

// State enumerates the lifecycle states of an attempt session.
type State string

const (
	StateIdle       State = "IDLE"
	StateReady      State = "READY"
	StateInProgress State = "IN_PROGRESS"
	StateFinished   State = "FINISHED"
)

// Question is a single multiple-choice question as drawn into an attempt.
// Options maps a choice label ("A".."E") to its text.
type Question struct {
	Prompt       string            `json:"prompt"`
	Options      map[string]string `json:"options"`
	CorrectLabel string            `json:"correct_label"`
}

// Identity is the aspirant taking the attempt. It is supplied at session
// creation and never validated or refreshed by the session itself.
type Identity struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	City     string `json:"city"`
}

// ReviewItem is one row of the per-question review shown after grading.
// UserAnswer is empty when the question was left blank.
type ReviewItem struct {
	Prompt        string `json:"prompt"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	WasCorrect    bool   `json:"was_correct"`
}

// Result is the graded outcome of one attempt. It is built once at
// finalization and never mutated afterwards.
type Result struct {
	Score      int          `json:"score"`
	Correct    int          `json:"correct_count"`
	Incorrect  int          `json:"incorrect_count"`
	Blank      int          `json:"blank_count"`
	Total      int          `json:"total_questions"`
	TimedOut   bool         `json:"timed_out"`
	Review     []ReviewItem `json:"review"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Record is the attempt record handed to the AttemptStore. Timestamps are
// ISO-8601 strings so the record serializes the same way everywhere
// (Redis queue, PostgreSQL, API).
type Record struct {
	ID             string       `json:"id"`
	UserID         int          `json:"user_id"`
	Username       string       `json:"username"`
	Name           string       `json:"name"`
	City           string       `json:"city"`
	University     string       `json:"university"`
	Subject        string       `json:"subject"`
	Score          int          `json:"score"`
	TotalQuestions int          `json:"total_questions"`
	CorrectCount   int          `json:"correct_count"`
	IncorrectCount int          `json:"incorrect_count"`
	BlankCount     int          `json:"blank_count"`
	StartedAt      string       `json:"started_at"`
	FinishedAt     string       `json:"finished_at"`
	Review         []ReviewItem `json:"review"`
}

// QuestionSource yields the full question bank for a university subject.
type QuestionSource interface {
	Fetch(ctx context.Context, university, subject string) ([]Question, error)
}

// AttemptStore is the durable sink for finished attempts. Record errors are
// logged by the session but never surface to the aspirant: the result is
// displayed whether or not the attempt could be saved.
type AttemptStore interface {
	Record(ctx context.Context, rec *Record) error
}

// Config carries the simulator knobs for one session.
type Config struct {
	QuestionCap int           // max questions drawn per attempt
	Duration    time.Duration // countdown length
	MaxScore    int           // score scale (full marks)
}

// withDefaults fills zero fields with the academy's published exam rules.
func (c Config) withDefaults() Config {
	if c.QuestionCap <= 0 {
		c.QuestionCap = 50
	}
	if c.Duration <= 0 {
		c.Duration = time.Hour
	}
	if c.MaxScore <= 0 {
		c.MaxScore = 1000
	}
	return c
}

// Domain errors.
var (
	// ErrBankUnavailable covers a failed fetch or an empty bank at start.
	// The session stays READY so the aspirant can retry.
	ErrBankUnavailable = errors.New("question bank unavailable")

	// ErrInvalidTransition marks an operation called outside its valid
	// state. The HTTP layer only exposes valid actions per state, so
	// hitting this is a programming error, not user input.
	ErrInvalidTransition = errors.New("operation not valid in current state")

	// ErrInvalidLabel marks an answer label that is not an option of the
	// current question.
	ErrInvalidLabel = errors.New("label is not an option of the current question")
)
