package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Attempt is a persisted exam attempt as read back for review. The identity
// fields are a snapshot taken at finalization — renaming a user later does
// not rewrite their history.
type Attempt struct {
	ID             uuid.UUID       `json:"id"`
	UserID         int             `json:"user_id"`
	Username       string          `json:"username"`
	Name           string          `json:"name"`
	City           string          `json:"city"`
	UniversityCode string          `json:"university_code"`
	Subject        string          `json:"subject"`
	Score          int             `json:"score"`
	TotalQuestions int             `json:"total_questions"`
	CorrectCount   int             `json:"correct_count"`
	IncorrectCount int             `json:"incorrect_count"`
	BlankCount     int             `json:"blank_count"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	Review         json.RawMessage `json:"review,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AttemptFilter narrows the admin attempt listing.
type AttemptFilter struct {
	UniversityCode string
	Subject        string
	// Search matches username or display name, case-insensitively.
	Search string
}

// SubjectSummary aggregates attempts per university subject for the admin
// dashboard.
type SubjectSummary struct {
	UniversityCode string  `json:"university_code"`
	Subject        string  `json:"subject"`
	Attempts       int     `json:"attempts"`
	AverageScore   float64 `json:"average_score"`
	BestScore      int     `json:"best_score"`
	Students       int     `json:"students"`
}
