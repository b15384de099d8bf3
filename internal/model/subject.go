package model

import "time"

// Subject is an examinable subject offered by one university.
type Subject struct {
	ID             int       `json:"id"`
	UniversityCode string    `json:"university_code"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SubjectWithBankSize is a subject annotated with its question bank size for
// the aspirant-facing picker.
type SubjectWithBankSize struct {
	Subject
	BankSize int `json:"bank_size"`
}

// CreateSubjectRequest is the payload for registering a subject.
type CreateSubjectRequest struct {
	UniversityCode string `json:"university_code" binding:"required,min=2,max=10"`
	Name           string `json:"name" binding:"required,min=2,max=100"`
}

// UpdateSubjectRequest is the payload for renaming a subject.
type UpdateSubjectRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}
