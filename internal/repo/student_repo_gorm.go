package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"eduplatform/internal/domain"
)

type StudentRepo struct{ db *gorm.DB }

func NewStudentRepo(db *gorm.DB) *StudentRepo { return &StudentRepo{db: db} }

// 保存前的派生字段重算是仓储职责，调用方不用管
func normalizeStudent(s *domain.Student) {
	s.EnrolledCourses = s.EnrolledCourses.Dedup()
	s.RecomputeProgress()
}

func (r *StudentRepo) Create(ctx context.Context, s *domain.Student) error {
	normalizeStudent(s)
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *StudentRepo) FindByID(ctx context.Context, id string) (*domain.Student, error) {
	var s domain.Student
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *StudentRepo) FindByUserID(ctx context.Context, userID string) (*domain.Student, error) {
	var s domain.Student
	err := r.db.WithContext(ctx).First(&s, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *StudentRepo) List(ctx context.Context, q domain.StudentQuery) ([]domain.Student, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Student{})
	if q.Stage != "" {
		tx = tx.Where("stage = ?", q.Stage)
	}
	if q.Search != "" {
		// 显式 join 查 users，而不是隐式 populate
		like := "%" + q.Search + "%"
		tx = tx.Where("user_id IN (?)",
			r.db.Model(&domain.User{}).Select("id").
				Where("role = ?", domain.RoleStudent).
				Where("email LIKE ? OR name LIKE ?", like, like),
		)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := domain.NormalizePage(q.Page, q.Limit)
	var students []domain.Student
	err := tx.Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&students).Error
	return students, total, err
}

func (r *StudentRepo) Update(ctx context.Context, s *domain.Student) error {
	normalizeStudent(s)
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *StudentRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Student{}).Error
}
