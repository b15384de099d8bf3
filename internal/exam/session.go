package exam

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session owns the full lifecycle of one exam attempt:
// subject selection → question drawing → timed question loop → grading →
// attempt hand-off → optional restart.
//
// All methods and the internal one-second tick serialize on one mutex, so
// each action runs to completion before the next — the session state is never
// observed mid-transition. One Session serves exactly one Identity.
type Session struct {
	mu     sync.Mutex
	cfg    Config
	source QuestionSource
	store  AttemptStore
	log    zerolog.Logger

	// now and rng are swappable for deterministic tests.
	now func() time.Time
	rng *rand.Rand

	identity   Identity
	state      State
	fetching   bool
	university string
	subject    string
	questions  []Question
	answers    []string // "" = blank
	current    int
	remaining  int
	startedAt  time.Time
	finishedAt time.Time
	result     *Result

	ticker     *time.Ticker
	tickerDone chan struct{}
}

// NewSession creates an idle session for one aspirant.
func NewSession(identity Identity, source QuestionSource, store AttemptStore, cfg Config, log zerolog.Logger) *Session {
	return &Session{
		cfg:      cfg.withDefaults(),
		source:   source,
		store:    store,
		identity: identity,
		state:    StateIdle,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log: log.With().
			Str("component", "exam_session").
			Int("user_id", identity.UserID).
			Logger(),
	}
}

// Identity returns the aspirant this session belongs to.
func (s *Session) Identity() Identity {
	return s.identity
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectSubject records the chosen university subject and moves IDLE → READY.
// It touches no external store.
func (s *Session) SelectSubject(university, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("%w: select subject in %s", ErrInvalidTransition, s.state)
	}

	s.university = university
	s.subject = subject
	s.state = StateReady
	return nil
}

// Start fetches the subject's question bank, draws the attempt's question
// set and moves READY → IN_PROGRESS, arming the countdown.
//
// The draw is a uniform Fisher-Yates shuffle of the full bank truncated to
// QuestionCap, so len(questions) == min(cap, bank size).
//
// On fetch failure or an empty bank the session stays READY and the error
// wraps ErrBankUnavailable; the caller surfaces a retryable message. While
// the fetch is outstanding the session still reports READY and rejects
// answer/advance calls.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady || s.fetching {
		defer s.mu.Unlock()
		return fmt.Errorf("%w: start in %s", ErrInvalidTransition, s.state)
	}
	s.fetching = true
	university, subject := s.university, s.subject
	s.mu.Unlock()

	bank, err := s.source.Fetch(ctx, university, subject)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetching = false

	if err != nil {
		s.log.Warn().Err(err).
			Str("university", university).
			Str("subject", subject).
			Msg("Question bank fetch failed")
		return fmt.Errorf("%w: %v", ErrBankUnavailable, err)
	}
	if len(bank) == 0 {
		return fmt.Errorf("%w: empty bank for %s/%s", ErrBankUnavailable, university, subject)
	}

	set := make([]Question, len(bank))
	copy(set, bank)
	s.rng.Shuffle(len(set), func(i, j int) { set[i], set[j] = set[j], set[i] })
	if len(set) > s.cfg.QuestionCap {
		set = set[:s.cfg.QuestionCap]
	}

	s.questions = set
	s.answers = make([]string, len(set))
	s.current = 0
	s.remaining = int(s.cfg.Duration / time.Second)
	s.startedAt = s.now()
	s.result = nil
	s.state = StateInProgress
	s.armTimerLocked()

	s.log.Info().
		Str("university", university).
		Str("subject", subject).
		Int("questions", len(set)).
		Int("duration_seconds", s.remaining).
		Msg("Attempt started")
	return nil
}

// SelectAnswer records label for the current question, overwriting any
// previous choice. Reselecting the same label is a no-op.
func (s *Session) SelectAnswer(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return fmt.Errorf("%w: answer in %s", ErrInvalidTransition, s.state)
	}
	if _, ok := s.questions[s.current].Options[label]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}

	s.answers[s.current] = label
	return nil
}

// Advance moves to the next question, or finalizes the attempt when called
// on the last one. A blank answer is permitted and preserved — whether to
// confirm with the aspirant first is the UI's concern.
//
// Returns a non-nil Result only when the attempt was finalized.
func (s *Session) Advance() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return nil, fmt.Errorf("%w: advance in %s", ErrInvalidTransition, s.state)
	}

	if s.current < len(s.questions)-1 {
		s.current++
		return nil, nil
	}

	return s.finalizeLocked(false), nil
}

// Result returns the graded outcome of a finished attempt.
func (s *Session) Result() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateFinished {
		return nil, fmt.Errorf("%w: result in %s", ErrInvalidTransition, s.state)
	}
	return s.result, nil
}

// Restart clears a finished session back to IDLE so a new subject can be
// selected. Every field is reset; nothing from the previous attempt leaks
// into the next one.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateFinished {
		return fmt.Errorf("%w: restart in %s", ErrInvalidTransition, s.state)
	}

	s.disarmTimerLocked()
	s.university = ""
	s.subject = ""
	s.questions = nil
	s.answers = nil
	s.current = 0
	s.remaining = 0
	s.startedAt = time.Time{}
	s.finishedAt = time.Time{}
	s.result = nil
	s.state = StateIdle
	return nil
}

// Close disarms the countdown regardless of state. Used when the owning
// manager drops the session (logout, shutdown).
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmTimerLocked()
}

// ────────────────────────────────────────────────────────────────────────────
// Countdown
// ────────────────────────────────────────────────────────────────────────────

// armTimerLocked starts the one-second countdown goroutine. The ticker and
// its done channel live on the session so finalization and restart can
// disarm it exactly once — no tick ever fires outside IN_PROGRESS.
func (s *Session) armTimerLocked() {
	ticker := time.NewTicker(time.Second)
	done := make(chan struct{})
	s.ticker = ticker
	s.tickerDone = done

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// disarmTimerLocked stops the countdown if armed. Safe to call repeatedly.
func (s *Session) disarmTimerLocked() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.tickerDone)
	s.ticker = nil
	s.tickerDone = nil
}

// tick consumes one second of the countdown. Reaching zero forces
// finalization: remaining unanswered questions count as blank, and the
// Result is built exactly as for a user-completed attempt.
func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return
	}

	s.remaining--
	if s.remaining > 0 {
		return
	}

	s.remaining = 0
	s.log.Info().Msg("Time expired, forcing finalization")
	s.finalizeLocked(true)
}

// ────────────────────────────────────────────────────────────────────────────
// Grading
// ────────────────────────────────────────────────────────────────────────────

// finalizeLocked stops the countdown, grades the attempt and hands the
// record to the store. The store write runs in the background: a persistence
// failure is logged but the aspirant always gets their result.
//
// Score policy: round half-up of correct/total scaled to MaxScore
// (math.Round — counts are non-negative, so half always rounds up).
func (s *Session) finalizeLocked(timedOut bool) *Result {
	s.disarmTimerLocked()

	var correct, incorrect, blank int
	review := make([]ReviewItem, len(s.questions))

	for i, q := range s.questions {
		answer := s.answers[i]
		wasCorrect := answer != "" && answer == q.CorrectLabel

		switch {
		case answer == "":
			blank++
		case wasCorrect:
			correct++
		default:
			incorrect++
		}

		review[i] = ReviewItem{
			Prompt:        q.Prompt,
			UserAnswer:    answer,
			CorrectAnswer: q.CorrectLabel,
			WasCorrect:    wasCorrect,
		}
	}

	total := len(s.questions)
	score := int(math.Round(float64(correct) / float64(total) * float64(s.cfg.MaxScore)))

	s.finishedAt = s.now()
	s.result = &Result{
		Score:      score,
		Correct:    correct,
		Incorrect:  incorrect,
		Blank:      blank,
		Total:      total,
		TimedOut:   timedOut,
		Review:     review,
		StartedAt:  s.startedAt,
		FinishedAt: s.finishedAt,
	}
	s.state = StateFinished

	rec := &Record{
		ID:             uuid.New().String(),
		UserID:         s.identity.UserID,
		Username:       s.identity.Username,
		Name:           s.identity.Name,
		City:           s.identity.City,
		University:     s.university,
		Subject:        s.subject,
		Score:          score,
		TotalQuestions: total,
		CorrectCount:   correct,
		IncorrectCount: incorrect,
		BlankCount:     blank,
		StartedAt:      s.startedAt.UTC().Format(time.RFC3339),
		FinishedAt:     s.finishedAt.UTC().Format(time.RFC3339),
		Review:         review,
	}
	go s.recordAttempt(rec)

	s.log.Info().
		Int("score", score).
		Int("correct", correct).
		Int("incorrect", incorrect).
		Int("blank", blank).
		Bool("timed_out", timedOut).
		Msg("Attempt finalized")

	return s.result
}

// recordAttempt persists the finished attempt off the caller's path.
func (s *Session) recordAttempt(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.Record(ctx, rec); err != nil {
		s.log.Error().Err(err).
			Str("attempt_id", rec.ID).
			Msg("Attempt store rejected record")
	}
}
