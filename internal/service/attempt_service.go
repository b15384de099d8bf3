package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sparta-academy/sparta-backend/internal/model"
	"github.com/sparta-academy/sparta-backend/internal/repository"
	"github.com/sparta-academy/sparta-backend/internal/response"
)

// AttemptService serves persisted attempt history: the admin results board
// and the aspirant's own past scores.
type AttemptService struct {
	attemptRepo *repository.AttemptRepository
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(attemptRepo *repository.AttemptRepository) *AttemptService {
	return &AttemptService{attemptRepo: attemptRepo}
}

// List retrieves attempts matching the filter with pagination metadata.
func (s *AttemptService) List(ctx context.Context, filter model.AttemptFilter, page, perPage int) ([]model.Attempt, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	attempts, total, err := s.attemptRepo.List(ctx, filter, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list attempts: %w", err)
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return attempts, pagination, nil
}

// GetByID retrieves one attempt including its answer review.
func (s *AttemptService) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return s.attemptRepo.GetByID(ctx, id)
}

// ListForUser retrieves an aspirant's own recent attempts.
func (s *AttemptService) ListForUser(ctx context.Context, userID int) ([]model.Attempt, error) {
	return s.attemptRepo.ListByUser(ctx, userID, 50)
}

// Summary aggregates attempts per university subject.
func (s *AttemptService) Summary(ctx context.Context) ([]model.SubjectSummary, error) {
	return s.attemptRepo.Summary(ctx)
}
