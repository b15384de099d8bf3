package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sparta-academy/sparta-backend/internal/config"
	"github.com/sparta-academy/sparta-backend/internal/exam"
)

// SimulatorService owns the live exam sessions, one per aspirant. Sessions
// are created lazily on first touch and survive reconnects: the browser can
// drop and the countdown keeps running server-side.
type SimulatorService struct {
	mu       sync.Mutex
	sessions map[int]*exam.Session

	cfg    *config.Config
	source exam.QuestionSource
	store  exam.AttemptStore
	log    zerolog.Logger
}

// NewSimulatorService creates a new SimulatorService.
func NewSimulatorService(cfg *config.Config, source exam.QuestionSource, store exam.AttemptStore) *SimulatorService {
	return &SimulatorService{
		sessions: make(map[int]*exam.Session),
		cfg:      cfg,
		source:   source,
		store:    store,
		log:      log.With().Str("component", "simulator_service").Logger(),
	}
}

// Session returns the aspirant's live session, creating an idle one if none
// exists yet.
func (s *SimulatorService) Session(identity exam.Identity) *exam.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[identity.UserID]; ok {
		return sess
	}

	sess := exam.NewSession(identity, s.source, s.store, exam.Config{
		QuestionCap: s.cfg.QuestionCap,
		Duration:    s.cfg.SessionDuration,
		MaxScore:    s.cfg.MaxScore,
	}, s.log)
	s.sessions[identity.UserID] = sess

	s.log.Debug().Int("user_id", identity.UserID).Msg("Session created")
	return sess
}

// Peek returns the aspirant's session without creating one.
func (s *SimulatorService) Peek(userID int) (*exam.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// SelectSubject moves the aspirant's session from idle to ready.
func (s *SimulatorService) SelectSubject(identity exam.Identity, university, subject string) error {
	return s.Session(identity).SelectSubject(university, subject)
}

// StartExam draws the question set and arms the countdown.
func (s *SimulatorService) StartExam(ctx context.Context, identity exam.Identity) error {
	return s.Session(identity).Start(ctx)
}

// SelectAnswer records or overwrites the answer to the current question.
func (s *SimulatorService) SelectAnswer(identity exam.Identity, label string) error {
	return s.Session(identity).SelectAnswer(label)
}

// Advance moves to the next question, or finalizes on the last one. The
// returned result is non-nil only when the attempt finished.
func (s *SimulatorService) Advance(identity exam.Identity) (*exam.Result, error) {
	return s.Session(identity).Advance()
}

// Result returns the graded outcome of a finished attempt.
func (s *SimulatorService) Result(identity exam.Identity) (*exam.Result, error) {
	return s.Session(identity).Result()
}

// Restart clears a finished attempt back to idle.
func (s *SimulatorService) Restart(identity exam.Identity) error {
	return s.Session(identity).Restart()
}

// Snapshot returns the aspirant-safe view of the session.
func (s *SimulatorService) Snapshot(identity exam.Identity) exam.Snapshot {
	return s.Session(identity).Snapshot()
}

// Drop closes and removes an aspirant's session. Called on logout or session
// reset so the next login starts clean.
func (s *SimulatorService) Drop(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userID]; ok {
		sess.Close()
		delete(s.sessions, userID)
		s.log.Debug().Int("user_id", userID).Msg("Session dropped")
	}
}

// CloseAll shuts every live session down. Called on server shutdown.
func (s *SimulatorService) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}
