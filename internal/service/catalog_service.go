package service

import (
	"context"
	"fmt"

	"github.com/sparta-academy/sparta-backend/internal/model"
	"github.com/sparta-academy/sparta-backend/internal/repository"
)

// CatalogService serves the university and subject catalog: what an aspirant
// can see, which entries they can actually enter, and the admin-side subject
// management.
type CatalogService struct {
	universityRepo *repository.UniversityRepository
	subjectRepo    *repository.SubjectRepository
	questionRepo   *repository.QuestionRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(universityRepo *repository.UniversityRepository, subjectRepo *repository.SubjectRepository, questionRepo *repository.QuestionRepository) *CatalogService {
	return &CatalogService{
		universityRepo: universityRepo,
		subjectRepo:    subjectRepo,
		questionRepo:   questionRepo,
	}
}

// ListUniversitiesFor returns every university with the aspirant's access
// flag filled in. Locked entries still render in the picker, they are just
// not enterable.
func (s *CatalogService) ListUniversitiesFor(ctx context.Context, accessCodes []string) ([]model.UniversityForStudent, error) {
	universities, err := s.universityRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}

	access := make(map[string]bool, len(accessCodes))
	for _, code := range accessCodes {
		access[code] = true
	}

	out := make([]model.UniversityForStudent, len(universities))
	for i, u := range universities {
		out[i] = model.UniversityForStudent{
			University: u,
			HasAccess:  access[u.Code],
		}
	}
	return out, nil
}

// ListSubjects returns a university's subjects along with each bank's size,
// so the picker can grey out subjects without questions.
func (s *CatalogService) ListSubjects(ctx context.Context, universityCode string) ([]model.SubjectWithBankSize, error) {
	if _, err := s.universityRepo.GetByCode(ctx, universityCode); err != nil {
		return nil, err
	}

	subjects, err := s.subjectRepo.ListByUniversity(ctx, universityCode)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}

	counts, err := s.questionRepo.CountBySubject(ctx, universityCode)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}

	out := make([]model.SubjectWithBankSize, len(subjects))
	for i, sub := range subjects {
		out[i] = model.SubjectWithBankSize{
			Subject:  sub,
			BankSize: counts[sub.Name],
		}
	}
	return out, nil
}

// CreateSubject registers a subject under a university.
func (s *CatalogService) CreateSubject(ctx context.Context, universityCode, name string) (*model.Subject, error) {
	if _, err := s.universityRepo.GetByCode(ctx, universityCode); err != nil {
		return nil, err
	}

	subject := &model.Subject{UniversityCode: universityCode, Name: name}
	if err := s.subjectRepo.Create(ctx, subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return subject, nil
}

// UpdateSubject renames a subject.
func (s *CatalogService) UpdateSubject(ctx context.Context, id int, name string) (*model.Subject, error) {
	subject, err := s.subjectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	subject.Name = name
	if err := s.subjectRepo.Update(ctx, subject); err != nil {
		return nil, fmt.Errorf("update subject: %w", err)
	}
	return subject, nil
}

// DeleteSubject removes a subject and its question bank.
func (s *CatalogService) DeleteSubject(ctx context.Context, id int) error {
	if _, err := s.subjectRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.subjectRepo.Delete(ctx, id)
}
