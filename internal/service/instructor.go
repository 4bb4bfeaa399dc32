package service

import (
	"context"
	"strings"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/domain"
)

type InstructorService struct {
	store domain.Store
}

func NewInstructorService(store domain.Store) *InstructorService {
	return &InstructorService{store: store}
}

func (s *InstructorService) MyProfile(ctx context.Context, userID string) (*domain.Instructor, error) {
	ins, err := s.store.Instructors().FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if ins == nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "instructor profile not found")
	}
	return ins, nil
}

type UpdateInstructorInput struct {
	Bio      *string
	Subjects []string
}

func (s *InstructorService) UpdateMyProfile(ctx context.Context, userID string, in UpdateInstructorInput) (*domain.Instructor, error) {
	ins, err := s.MyProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		ins.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Subjects != nil {
		if len(in.Subjects) == 0 {
			return nil, apperr.Validation("at least one subject is required", nil)
		}
		for _, sub := range in.Subjects {
			if !domain.Subject(sub).Valid() {
				return nil, apperr.Validation("invalid subject", map[string]string{"subject": sub})
			}
		}
		ins.Subjects = domain.StringList(in.Subjects)
	}

	if err := s.store.Instructors().Update(ctx, ins); err != nil {
		return nil, apperr.Internal(err)
	}
	return ins, nil
}

func (s *InstructorService) Get(ctx context.Context, id string) (*domain.Instructor, error) {
	ins, err := s.store.Instructors().FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if ins == nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "instructor not found")
	}
	return ins, nil
}

func (s *InstructorService) List(ctx context.Context, q domain.InstructorQuery) ([]domain.Instructor, int64, error) {
	if q.Subject != "" && !q.Subject.Valid() {
		return nil, 0, apperr.Validation("invalid subject", map[string]string{"subject": string(q.Subject)})
	}
	instructors, total, err := s.store.Instructors().List(ctx, q)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return instructors, total, nil
}
