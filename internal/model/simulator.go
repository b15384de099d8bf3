package model

// SelectSubjectRequest is the payload for choosing what to be examined on.
type SelectSubjectRequest struct {
	UniversityCode string `json:"university_code" binding:"required,min=2,max=10"`
	Subject        string `json:"subject" binding:"required,min=2,max=100"`
}

// AnswerRequest is the payload for answering the current question.
type AnswerRequest struct {
	Label string `json:"label" binding:"required,min=1,max=1"`
}
