package exam

// QuestionView is the current question as shown to the aspirant. The correct
// label never leaves the session before grading.
type QuestionView struct {
	Number   int               `json:"number"` // 1-based position in the attempt
	Total    int               `json:"total"`
	Prompt   string            `json:"prompt"`
	Options  map[string]string `json:"options"`
	Selected string            `json:"selected,omitempty"`
	Last     bool              `json:"last"`
}

// Snapshot is a consistent read of the session for HTTP and WebSocket
// consumers: state, countdown, the sanitized current question while
// IN_PROGRESS, and the result once FINISHED.
type Snapshot struct {
	State      State         `json:"state"`
	University string        `json:"university,omitempty"`
	Subject    string        `json:"subject,omitempty"`
	Remaining  int           `json:"time_remaining_seconds"`
	Question   *QuestionView `json:"question,omitempty"`
	Result     *Result       `json:"result,omitempty"`
}

// Snapshot returns a point-in-time view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:      s.state,
		University: s.university,
		Subject:    s.subject,
		Remaining:  s.remaining,
	}

	switch s.state {
	case StateInProgress:
		q := s.questions[s.current]
		options := make(map[string]string, len(q.Options))
		for label, text := range q.Options {
			options[label] = text
		}
		snap.Question = &QuestionView{
			Number:   s.current + 1,
			Total:    len(s.questions),
			Prompt:   q.Prompt,
			Options:  options,
			Selected: s.answers[s.current],
			Last:     s.current == len(s.questions)-1,
		}
	case StateFinished:
		snap.Result = s.result
	}

	return snap
}
