package exam

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a fixed bank, optionally failing first.
type fakeSource struct {
	bank []Question
	err  error
}

func (f *fakeSource) Fetch(_ context.Context, _, _ string) ([]Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bank, nil
}

// fakeStore records handed-off attempts; recorded signals each arrival since
// the session persists in the background.
type fakeStore struct {
	mu       sync.Mutex
	records  []*Record
	err      error
	recorded chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{recorded: make(chan struct{}, 8)}
}

func (f *fakeStore) Record(_ context.Context, rec *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded <- struct{}{}
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStore) waitForRecord(t *testing.T) {
	t.Helper()
	select {
	case <-f.recorded:
	case <-time.After(2 * time.Second):
		t.Fatal("attempt record never reached the store")
	}
}

func (f *fakeStore) last() *Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.records) == 0 {
		return nil
	}
	return f.records[len(f.records)-1]
}

func makeBank(n int) []Question {
	bank := make([]Question, n)
	labels := []string{"A", "B", "C", "D"}
	for i := range bank {
		bank[i] = Question{
			Prompt: fmt.Sprintf("Q%03d", i),
			Options: map[string]string{
				"A": "option a", "B": "option b",
				"C": "option c", "D": "option d",
			},
			CorrectLabel: labels[i%len(labels)],
		}
	}
	return bank
}

func testIdentity() Identity {
	return Identity{UserID: 7, Username: "maria.quispe", Name: "María Quispe", City: "Quito"}
}

func newTestSession(t *testing.T, bank []Question, store AttemptStore, cfg Config) *Session {
	t.Helper()
	s := NewSession(testIdentity(), &fakeSource{bank: bank}, store, cfg, zerolog.Nop())
	s.rng = rand.New(rand.NewSource(42))
	t.Cleanup(s.Close)
	return s
}

// startSession drives a fresh session to IN_PROGRESS.
func startSession(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.SelectSubject("UPEC", "Matemáticas"))
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, StateInProgress, s.State())
}

// answerAndAdvanceAll answers every question with the given label and walks
// to the end, returning the finalization result.
func answerAndAdvanceAll(t *testing.T, s *Session, label string) *Result {
	t.Helper()
	for {
		require.NoError(t, s.SelectAnswer(label))
		res, err := s.Advance()
		require.NoError(t, err)
		if res != nil {
			return res
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(t, makeBank(10), store, Config{QuestionCap: 10, Duration: time.Hour, MaxScore: 1000})

	require.Equal(t, StateIdle, s.State())
	startSession(t, s)

	snap := s.Snapshot()
	require.NotNil(t, snap.Question)
	assert.Equal(t, 1, snap.Question.Number)
	assert.Equal(t, 10, snap.Question.Total)
	assert.GreaterOrEqual(t, snap.Remaining, 3599) // the live countdown may have ticked once

	assert.Empty(t, snap.Question.Selected)
	assert.NotContains(t, snap.Question.Options, snap.Question.Prompt)

	res := answerAndAdvanceAll(t, s, "A")
	require.Equal(t, StateFinished, s.State())

	assert.Equal(t, 10, res.Total)
	assert.Equal(t, res.Total, res.Correct+res.Incorrect+res.Blank)
	assert.Zero(t, res.Blank)
	assert.False(t, res.TimedOut)
	assert.Len(t, res.Review, 10)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))

	got, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, res, got)

	store.waitForRecord(t)
	rec := store.last()
	require.NotNil(t, rec)
	assert.Equal(t, "maria.quispe", rec.Username)
	assert.Equal(t, "Quito", rec.City)
	assert.Equal(t, "UPEC", rec.University)
	assert.Equal(t, "Matemáticas", rec.Subject)
	assert.Equal(t, res.Score, rec.Score)
	assert.Equal(t, res.Correct, rec.CorrectCount)
	assert.Len(t, rec.Review, 10)

	// Recorded timestamps are ISO-8601.
	_, err = time.Parse(time.RFC3339, rec.StartedAt)
	require.NoError(t, err)
	_, err = time.Parse(time.RFC3339, rec.FinishedAt)
	require.NoError(t, err)
}

func TestQuestionDraw(t *testing.T) {
	t.Run("BankSmallerThanCap", func(t *testing.T) {
		s := newTestSession(t, makeBank(35), newFakeStore(), Config{QuestionCap: 50})
		startSession(t, s)
		assert.Equal(t, 35, s.Snapshot().Question.Total)
	})

	t.Run("BankLargerThanCap", func(t *testing.T) {
		s := newTestSession(t, makeBank(80), newFakeStore(), Config{QuestionCap: 50})
		startSession(t, s)
		assert.Equal(t, 50, s.Snapshot().Question.Total)
	})

	t.Run("DrawnSetIsSubsetOfBankWithoutDuplicates", func(t *testing.T) {
		bank := makeBank(80)
		inBank := make(map[string]bool, len(bank))
		for _, q := range bank {
			inBank[q.Prompt] = true
		}

		s := newTestSession(t, bank, newFakeStore(), Config{QuestionCap: 50})
		startSession(t, s)

		seen := make(map[string]bool)
		for _, q := range s.questions {
			assert.True(t, inBank[q.Prompt], "question not from bank: %s", q.Prompt)
			assert.False(t, seen[q.Prompt], "duplicate question: %s", q.Prompt)
			seen[q.Prompt] = true
		}
	})
}

// TestShuffleRandomizesOrder is statistical: across several independent
// draws from the same bank at least one pair of orders must differ.
func TestShuffleRandomizesOrder(t *testing.T) {
	bank := makeBank(30)

	order := func(seed int64) []string {
		s := NewSession(testIdentity(), &fakeSource{bank: bank}, newFakeStore(), Config{QuestionCap: 50}, zerolog.Nop())
		s.rng = rand.New(rand.NewSource(seed))
		t.Cleanup(s.Close)
		startSession(t, s)
		prompts := make([]string, len(s.questions))
		for i, q := range s.questions {
			prompts[i] = q.Prompt
		}
		return prompts
	}

	first := order(1)
	differs := false
	for seed := int64(2); seed <= 6; seed++ {
		if !assert.ObjectsAreEqual(first, order(seed)) {
			differs = true
			break
		}
	}
	assert.True(t, differs, "five independent draws all produced the same order")
}

func TestScoring(t *testing.T) {
	// answerPlan answers the first `correct` questions correctly, the next
	// `wrong` incorrectly, and leaves the rest blank.
	run := func(t *testing.T, bankSize, correct, wrong, maxScore int) *Result {
		t.Helper()
		store := newFakeStore()
		s := newTestSession(t, makeBank(bankSize), store, Config{QuestionCap: bankSize, MaxScore: maxScore})
		startSession(t, s)

		wrongOf := func(q Question) string {
			for _, label := range []string{"A", "B", "C", "D"} {
				if label != q.CorrectLabel {
					return label
				}
			}
			t.Fatal("question has a single option")
			return ""
		}

		var res *Result
		for i := 0; ; i++ {
			s.mu.Lock()
			q := s.questions[s.current]
			s.mu.Unlock()

			switch {
			case i < correct:
				require.NoError(t, s.SelectAnswer(q.CorrectLabel))
			case i < correct+wrong:
				require.NoError(t, s.SelectAnswer(wrongOf(q)))
			}

			var err error
			res, err = s.Advance()
			require.NoError(t, err)
			if res != nil {
				return res
			}
		}
	}

	t.Run("ThirtyOfFiftyScoresSixHundred", func(t *testing.T) {
		res := run(t, 50, 30, 10, 1000)
		assert.Equal(t, 600, res.Score)
		assert.Equal(t, 30, res.Correct)
		assert.Equal(t, 10, res.Incorrect)
		assert.Equal(t, 10, res.Blank)
	})

	t.Run("RoundsHalfUp", func(t *testing.T) {
		// 1/16 * 1000 = 62.5 → 63
		res := run(t, 16, 1, 0, 1000)
		assert.Equal(t, 63, res.Score)
	})

	t.Run("RoundsNearest", func(t *testing.T) {
		// 1/3 * 1000 = 333.33 → 333; 1/6 * 1000 = 166.67 → 167
		assert.Equal(t, 333, run(t, 3, 1, 0, 1000).Score)
		assert.Equal(t, 167, run(t, 6, 1, 0, 1000).Score)
	})

	t.Run("TallyAlwaysSumsToTotal", func(t *testing.T) {
		res := run(t, 23, 7, 5, 1000)
		assert.Equal(t, res.Total, res.Correct+res.Incorrect+res.Blank)
		assert.Equal(t, 11, res.Blank)
	})
}

func TestSelectAnswerOverwrite(t *testing.T) {
	s := newTestSession(t, makeBank(5), newFakeStore(), Config{})
	startSession(t, s)

	require.NoError(t, s.SelectAnswer("B"))
	require.NoError(t, s.SelectAnswer("C"))
	assert.Equal(t, "C", s.Snapshot().Question.Selected)

	// Reselecting the same label is idempotent.
	require.NoError(t, s.SelectAnswer("C"))
	assert.Equal(t, "C", s.Snapshot().Question.Selected)
}

func TestInvalidAnswerLabel(t *testing.T) {
	s := newTestSession(t, makeBank(5), newFakeStore(), Config{})
	startSession(t, s)

	err := s.SelectAnswer("Z")
	require.ErrorIs(t, err, ErrInvalidLabel)
	assert.Empty(t, s.Snapshot().Question.Selected)
}

func TestTimerExpiryForcesFinalize(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(t, makeBank(50), store, Config{QuestionCap: 50})
	startSession(t, s)

	// Answer the first ten questions, then let the clock run out.
	for i := 0; i < 10; i++ {
		require.NoError(t, s.SelectAnswer("A"))
		_, err := s.Advance()
		require.NoError(t, err)
	}

	s.mu.Lock()
	s.remaining = 1
	s.mu.Unlock()
	s.tick()

	require.Equal(t, StateFinished, s.State())
	res, err := s.Result()
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Equal(t, 40, res.Blank)
	assert.Equal(t, res.Total, res.Correct+res.Incorrect+res.Blank)
	assert.Equal(t, 0, s.Snapshot().Remaining)

	// The forced end hands off the attempt like a user-completed one.
	store.waitForRecord(t)
	assert.Equal(t, 40, store.last().BlankCount)
}

func TestNoTickOutsideInProgress(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(t, makeBank(3), store, Config{})
	startSession(t, s)
	answerAndAdvanceAll(t, s, "A")
	store.waitForRecord(t)

	// A stray tick after FINISHED must not move the countdown or re-grade.
	before, err := s.Result()
	require.NoError(t, err)
	s.tick()
	after, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, len(store.records))
}

func TestRestartClearsEverything(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(t, makeBank(8), store, Config{})
	startSession(t, s)
	answerAndAdvanceAll(t, s, "B")
	store.waitForRecord(t)

	require.NoError(t, s.Restart())
	require.Equal(t, StateIdle, s.State())

	snap := s.Snapshot()
	assert.Empty(t, snap.University)
	assert.Empty(t, snap.Subject)
	assert.Zero(t, snap.Remaining)
	assert.Nil(t, snap.Question)
	assert.Nil(t, snap.Result)

	// A fresh attempt carries nothing over from the previous one.
	startSession(t, s)
	assert.Empty(t, s.Snapshot().Question.Selected)
	assert.Equal(t, 1, s.Snapshot().Question.Number)
}

func TestStartFailures(t *testing.T) {
	t.Run("FetchError", func(t *testing.T) {
		src := &fakeSource{bank: makeBank(5), err: errors.New("bucket offline")}
		s := NewSession(testIdentity(), src, newFakeStore(), Config{}, zerolog.Nop())
		t.Cleanup(s.Close)

		require.NoError(t, s.SelectSubject("UPEC", "Física"))
		err := s.Start(context.Background())
		require.ErrorIs(t, err, ErrBankUnavailable)
		assert.Equal(t, StateReady, s.State())

		// The failure is retryable: once the source recovers, Start works.
		src.err = nil
		require.NoError(t, s.Start(context.Background()))
		assert.Equal(t, StateInProgress, s.State())
	})

	t.Run("EmptyBank", func(t *testing.T) {
		s := NewSession(testIdentity(), &fakeSource{}, newFakeStore(), Config{}, zerolog.Nop())
		t.Cleanup(s.Close)

		require.NoError(t, s.SelectSubject("UPEC", "Química"))
		err := s.Start(context.Background())
		require.ErrorIs(t, err, ErrBankUnavailable)
		assert.Equal(t, StateReady, s.State())
	})
}

func TestStoreFailureStillProducesResult(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("attempts table is on fire")
	s := newTestSession(t, makeBank(10), store, Config{})
	startSession(t, s)

	res := answerAndAdvanceAll(t, s, "A")
	require.NotNil(t, res)
	assert.Equal(t, StateFinished, s.State())
	assert.Equal(t, res.Total, res.Correct+res.Incorrect+res.Blank)

	// The store did reject the record; the result is unaffected.
	store.waitForRecord(t)
	got, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, res, got)
}

func TestInvalidTransitions(t *testing.T) {
	bank := makeBank(5)

	t.Run("AnswerBeforeStart", func(t *testing.T) {
		s := newTestSession(t, bank, newFakeStore(), Config{})
		require.ErrorIs(t, s.SelectAnswer("A"), ErrInvalidTransition)
		require.NoError(t, s.SelectSubject("UPEC", "Física"))
		require.ErrorIs(t, s.SelectAnswer("A"), ErrInvalidTransition)
	})

	t.Run("AdvanceBeforeStart", func(t *testing.T) {
		s := newTestSession(t, bank, newFakeStore(), Config{})
		_, err := s.Advance()
		require.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("StartWithoutSubject", func(t *testing.T) {
		s := newTestSession(t, bank, newFakeStore(), Config{})
		require.ErrorIs(t, s.Start(context.Background()), ErrInvalidTransition)
	})

	t.Run("SelectSubjectTwice", func(t *testing.T) {
		s := newTestSession(t, bank, newFakeStore(), Config{})
		require.NoError(t, s.SelectSubject("UPEC", "Física"))
		require.ErrorIs(t, s.SelectSubject("UPEC", "Química"), ErrInvalidTransition)
	})

	t.Run("RestartWhileInProgress", func(t *testing.T) {
		s := newTestSession(t, bank, newFakeStore(), Config{})
		startSession(t, s)
		require.ErrorIs(t, s.Restart(), ErrInvalidTransition)
	})

	t.Run("ResultWhileInProgress", func(t *testing.T) {
		s := newTestSession(t, bank, newFakeStore(), Config{})
		startSession(t, s)
		_, err := s.Result()
		require.ErrorIs(t, err, ErrInvalidTransition)
	})
}
