package model

import (
	"github.com/google/uuid"
)

// Question is a bank question as stored: prompt, 2–5 labeled options and the
// label of the correct one. Banks are keyed by university and subject.
type Question struct {
	ID             uuid.UUID         `json:"id"`
	UniversityCode string            `json:"university_code"`
	SubjectID      int               `json:"subject_id"`
	Prompt         string            `json:"prompt"`
	Options        map[string]string `json:"options"`
	CorrectLabel   string            `json:"correct_label"`
}
