package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sparta-academy/sparta-backend/internal/config"
	"github.com/sparta-academy/sparta-backend/internal/exam"
	"github.com/sparta-academy/sparta-backend/internal/repository"
)

// BankService serves question banks to exam sessions. Banks are cached in
// Redis so starting an exam never touches PostgreSQL on the hot path; the
// database is only hit on a cache miss or during prewarm.
type BankService struct {
	questionRepo *repository.QuestionRepository
	subjectRepo  *repository.SubjectRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewBankService creates a new BankService.
func NewBankService(questionRepo *repository.QuestionRepository, subjectRepo *repository.SubjectRepository, rdb *redis.Client) *BankService {
	return &BankService{
		questionRepo: questionRepo,
		subjectRepo:  subjectRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "bank_service").Logger(),
	}
}

// Fetch returns the full bank for a university subject. Cache first, then
// PostgreSQL with a write-back.
func (s *BankService) Fetch(ctx context.Context, university, subject string) ([]exam.Question, error) {
	cacheKey := config.CacheKey.QuestionBankKey(university, subject)

	cached, err := s.rdb.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var bank []exam.Question
		if err := json.Unmarshal(cached, &bank); err == nil {
			return bank, nil
		}
		// Corrupt cache entry: drop it and fall through to the database.
		s.rdb.Del(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("key", cacheKey).Msg("Bank cache read failed, falling back to database")
	}

	return s.loadAndCache(ctx, university, subject)
}

func (s *BankService) loadAndCache(ctx context.Context, university, subject string) ([]exam.Question, error) {
	questions, err := s.questionRepo.ListBySubject(ctx, university, subject)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	bank := make([]exam.Question, len(questions))
	for i, q := range questions {
		bank[i] = exam.Question{
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectLabel: q.CorrectLabel,
		}
	}

	if len(bank) > 0 {
		if payload, err := json.Marshal(bank); err == nil {
			cacheKey := config.CacheKey.QuestionBankKey(university, subject)
			if err := s.rdb.Set(ctx, cacheKey, payload, 0).Err(); err != nil {
				s.log.Warn().Err(err).Str("key", cacheKey).Msg("Bank cache write failed")
			}
		}
	}

	return bank, nil
}

// PrewarmAllBanks loads every subject's bank into Redis on startup. This
// prevents lazy-loading races when many aspirants start exams at once.
func (s *BankService) PrewarmAllBanks(ctx context.Context) error {
	subjects, err := s.subjectRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}

	if len(subjects) == 0 {
		s.log.Info().Msg("No subjects to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(subjects)).Msg("Prewarming question banks...")

	warmed := 0
	for _, sub := range subjects {
		bank, err := s.loadAndCache(ctx, sub.UniversityCode, sub.Name)
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("university", sub.UniversityCode).
				Str("subject", sub.Name).
				Msg("Failed to warm bank, skipping")
			continue
		}
		if len(bank) == 0 {
			s.log.Warn().
				Str("university", sub.UniversityCode).
				Str("subject", sub.Name).
				Msg("Subject has an empty bank")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(subjects)).
		Msg("Prewarming complete")
	return nil
}

// InvalidateBank drops a cached bank, forcing a reload on next fetch. Called
// after a reseed or a subject edit.
func (s *BankService) InvalidateBank(ctx context.Context, university, subject string) error {
	return s.rdb.Del(ctx, config.CacheKey.QuestionBankKey(university, subject)).Err()
}
