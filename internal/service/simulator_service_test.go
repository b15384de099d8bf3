package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sparta-academy/sparta-backend/internal/config"
	"github.com/sparta-academy/sparta-backend/internal/exam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	bank []exam.Question
}

func (s *stubSource) Fetch(_ context.Context, _, _ string) ([]exam.Question, error) {
	return s.bank, nil
}

type stubStore struct {
	mu      sync.Mutex
	records []*exam.Record
}

func (s *stubStore) Record(_ context.Context, rec *exam.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *stubStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func smallBank(n int) []exam.Question {
	bank := make([]exam.Question, n)
	for i := range bank {
		bank[i] = exam.Question{
			Prompt:       fmt.Sprintf("Pregunta %d", i+1),
			Options:      map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
			CorrectLabel: "A",
		}
	}
	return bank
}

func testConfig() *config.Config {
	return &config.Config{
		QuestionCap:     50,
		SessionDuration: time.Hour,
		MaxScore:        1000,
	}
}

func anIdentity(userID int) exam.Identity {
	return exam.Identity{UserID: userID, Username: fmt.Sprintf("user%d", userID), Name: "Aspirante", City: "Quito"}
}

func TestSessionReuse(t *testing.T) {
	svc := NewSimulatorService(testConfig(), &stubSource{bank: smallBank(5)}, &stubStore{})
	t.Cleanup(svc.CloseAll)

	a := svc.Session(anIdentity(1))
	b := svc.Session(anIdentity(1))
	assert.Same(t, a, b, "same aspirant must get the same session")

	c := svc.Session(anIdentity(2))
	assert.NotSame(t, a, c, "different aspirants get different sessions")
}

func TestFullFlowThroughService(t *testing.T) {
	store := &stubStore{}
	svc := NewSimulatorService(testConfig(), &stubSource{bank: smallBank(4)}, store)
	t.Cleanup(svc.CloseAll)

	identity := anIdentity(1)

	require.NoError(t, svc.SelectSubject(identity, "UPEC", "Física"))
	require.NoError(t, svc.StartExam(context.Background(), identity))

	snap := svc.Snapshot(identity)
	require.Equal(t, exam.StateInProgress, snap.State)
	require.NotNil(t, snap.Question)
	assert.Equal(t, 4, snap.Question.Total)

	var result *exam.Result
	for {
		require.NoError(t, svc.SelectAnswer(identity, "A"))
		res, err := svc.Advance(identity)
		require.NoError(t, err)
		if res != nil {
			result = res
			break
		}
	}

	assert.Equal(t, 1000, result.Score)
	assert.Equal(t, 4, result.Correct)

	got, err := svc.Result(identity)
	require.NoError(t, err)
	assert.Equal(t, result, got)

	require.NoError(t, svc.Restart(identity))
	assert.Equal(t, exam.StateIdle, svc.Snapshot(identity).State)

	// The record is handed off in the background.
	assert.Eventually(t, func() bool { return store.count() == 1 },
		2*time.Second, 10*time.Millisecond, "attempt never reached the store")
}

func TestDropClosesSession(t *testing.T) {
	svc := NewSimulatorService(testConfig(), &stubSource{bank: smallBank(3)}, &stubStore{})
	t.Cleanup(svc.CloseAll)

	identity := anIdentity(9)
	svc.Session(identity)

	_, ok := svc.Peek(9)
	require.True(t, ok)

	svc.Drop(9)
	_, ok = svc.Peek(9)
	assert.False(t, ok)

	// A new touch after the drop builds a fresh idle session.
	assert.Equal(t, exam.StateIdle, svc.Snapshot(identity).State)
}

func TestSessionsAreIsolated(t *testing.T) {
	svc := NewSimulatorService(testConfig(), &stubSource{bank: smallBank(3)}, &stubStore{})
	t.Cleanup(svc.CloseAll)

	first := anIdentity(1)
	second := anIdentity(2)

	require.NoError(t, svc.SelectSubject(first, "UPEC", "Química"))
	require.NoError(t, svc.StartExam(context.Background(), first))

	assert.Equal(t, exam.StateInProgress, svc.Snapshot(first).State)
	assert.Equal(t, exam.StateIdle, svc.Snapshot(second).State)
}
