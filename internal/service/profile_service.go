package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

type profileStore interface {
	Get(ctx context.Context, userID string) (*models.TeacherProfile, error)
	Upsert(ctx context.Context, profile *models.TeacherProfile) error
	ListSubjects(ctx context.Context, userID string, grade int) ([]models.UserSubject, error)
	ReplaceSubjects(ctx context.Context, exec sqlx.ExtContext, userID string, subjects []models.UserSubject) error
}

type hoursCacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

// ProfileService manages the teacher's setup: role, class and subject selections.
type ProfileService struct {
	repo      profileStore
	hours     hoursCacheInvalidator
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs the profile service.
func NewProfileService(repo profileStore, hours hoursCacheInvalidator, tx txProvider, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, hours: hours, tx: tx, validator: validate, logger: logger}
}

// Get returns the caller's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	profile, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// Update stores role and class. Homeroom teachers need a grade and class;
// specialists have neither.
func (s *ProfileService) Update(ctx context.Context, userID, email string, req dto.UpdateProfileRequest) (*models.TeacherProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile := &models.TeacherProfile{UserID: userID, Email: email, Role: req.Role}
	if req.Role == models.TeacherRoleHomeroom {
		if req.Grade == nil || req.ClassNumber == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "homeroom teachers need grade and class_number")
		}
		profile.Grade = req.Grade
		profile.ClassNumber = req.ClassNumber
	}

	if existing, err := s.repo.Get(ctx, userID); err == nil {
		profile.CreatedAt = existing.CreatedAt
		if profile.Email == "" {
			profile.Email = existing.Email
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}
	s.invalidate(ctx, userID)
	s.logger.Info("teacher profile updated", zap.String("user_id", userID), zap.String("role", string(profile.Role)))
	return profile, nil
}

// ListSubjects returns the caller's subject selections; grade 0 lists all grades.
func (s *ProfileService) ListSubjects(ctx context.Context, userID string, grade int) ([]models.UserSubject, error) {
	if grade < 0 || grade > 6 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade must be between 1 and 6")
	}
	subjects, err := s.repo.ListSubjects(ctx, userID, grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.UserSubject{}
	}
	return subjects, nil
}

// ReplaceSubjects swaps every subject selection of the caller in one transaction.
func (s *ProfileService) ReplaceSubjects(ctx context.Context, userID string, req dto.ReplaceSubjectsRequest) ([]models.UserSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subjects payload")
	}

	type selection struct {
		subjectID string
		grade     int
		class     int
	}
	seen := make(map[selection]struct{}, len(req.Subjects))
	subjects := make([]models.UserSubject, 0, len(req.Subjects))
	for _, input := range req.Subjects {
		key := selection{subjectID: input.SubjectID, grade: input.Grade}
		if input.ClassNumber != nil {
			key.class = *input.ClassNumber
		}
		if _, ok := seen[key]; ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("subject %s selected twice for grade %d", input.SubjectID, input.Grade))
		}
		seen[key] = struct{}{}
		subjects = append(subjects, models.UserSubject{
			UserID:      userID,
			SubjectID:   input.SubjectID,
			Grade:       input.Grade,
			ClassNumber: input.ClassNumber,
			PublisherID: input.PublisherID,
		})
	}

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.repo.ReplaceSubjects(ctx, tx, userID, subjects); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save subjects")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit subjects")
	}

	s.invalidate(ctx, userID)
	return subjects, nil
}

func (s *ProfileService) invalidate(ctx context.Context, userID string) {
	if s.hours != nil {
		s.hours.InvalidateUser(ctx, userID)
	}
}
