package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"eduplatform/internal/domain"
)

type InstructorRepo struct{ db *gorm.DB }

func NewInstructorRepo(db *gorm.DB) *InstructorRepo { return &InstructorRepo{db: db} }

func normalizeInstructor(i *domain.Instructor) {
	i.Subjects = i.Subjects.Dedup()
	i.TaughtCourses = i.TaughtCourses.Dedup()
}

func (r *InstructorRepo) Create(ctx context.Context, i *domain.Instructor) error {
	normalizeInstructor(i)
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *InstructorRepo) FindByID(ctx context.Context, id string) (*domain.Instructor, error) {
	var i domain.Instructor
	err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &i, err
}

func (r *InstructorRepo) FindByUserID(ctx context.Context, userID string) (*domain.Instructor, error) {
	var i domain.Instructor
	err := r.db.WithContext(ctx).First(&i, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &i, err
}

func (r *InstructorRepo) List(ctx context.Context, q domain.InstructorQuery) ([]domain.Instructor, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Instructor{})
	if q.Subject != "" {
		// subjects 为 JSON 数组列，按带引号的子串匹配
		tx = tx.Where(`subjects LIKE ?`, `%"`+string(q.Subject)+`"%`)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		tx = tx.Where("user_id IN (?)",
			r.db.Model(&domain.User{}).Select("id").
				Where("role = ?", domain.RoleInstructor).
				Where("email LIKE ? OR name LIKE ?", like, like),
		)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := domain.NormalizePage(q.Page, q.Limit)
	var instructors []domain.Instructor
	err := tx.Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&instructors).Error
	return instructors, total, err
}

func (r *InstructorRepo) Update(ctx context.Context, i *domain.Instructor) error {
	normalizeInstructor(i)
	return r.db.WithContext(ctx).Save(i).Error
}

func (r *InstructorRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Instructor{}).Error
}
