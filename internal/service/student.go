package service

import (
	"context"
	"strings"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/domain"
)

type StudentService struct {
	store domain.Store
}

func NewStudentService(store domain.Store) *StudentService {
	return &StudentService{store: store}
}

func (s *StudentService) MyProfile(ctx context.Context, userID string) (*domain.Student, error) {
	st, err := s.store.Students().FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if st == nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "student profile not found")
	}
	return st, nil
}

type UpdateStudentInput struct {
	Stage       *string
	ParentPhone *string
}

func (s *StudentService) UpdateMyProfile(ctx context.Context, userID string, in UpdateStudentInput) (*domain.Student, error) {
	st, err := s.MyProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Stage != nil {
		stage := domain.Stage(*in.Stage)
		if !stage.Valid() {
			return nil, apperr.Validation("invalid stage", map[string]string{"stage": *in.Stage})
		}
		st.Stage = stage
	}
	if in.ParentPhone != nil {
		st.ParentPhone = strings.TrimSpace(*in.ParentPhone)
	}

	if err := s.store.Students().Update(ctx, st); err != nil {
		return nil, apperr.Internal(err)
	}
	return st, nil
}

func (s *StudentService) Get(ctx context.Context, id string) (*domain.Student, error) {
	st, err := s.store.Students().FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if st == nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "student not found")
	}
	return st, nil
}

func (s *StudentService) List(ctx context.Context, q domain.StudentQuery) ([]domain.Student, int64, error) {
	if q.Stage != "" && !q.Stage.Valid() {
		return nil, 0, apperr.Validation("invalid stage", map[string]string{"stage": string(q.Stage)})
	}
	students, total, err := s.store.Students().List(ctx, q)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return students, total, nil
}
