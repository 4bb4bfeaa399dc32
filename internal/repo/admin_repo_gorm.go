package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"eduplatform/internal/domain"
)

type AdminRepo struct{ db *gorm.DB }

func NewAdminRepo(db *gorm.DB) *AdminRepo { return &AdminRepo{db: db} }

func (r *AdminRepo) Create(ctx context.Context, a *domain.Admin) error {
	a.Permissions = a.Permissions.Dedup()
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AdminRepo) FindByID(ctx context.Context, id string) (*domain.Admin, error) {
	var a domain.Admin
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &a, err
}

func (r *AdminRepo) FindByUserID(ctx context.Context, userID string) (*domain.Admin, error) {
	var a domain.Admin
	err := r.db.WithContext(ctx).First(&a, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &a, err
}

func (r *AdminRepo) FindByPermission(ctx context.Context, p domain.Permission) ([]domain.Admin, error) {
	var admins []domain.Admin
	err := r.db.WithContext(ctx).
		Where(`permissions LIKE ?`, `%"`+string(p)+`"%`).
		Find(&admins).Error
	return admins, err
}

func (r *AdminRepo) Update(ctx context.Context, a *domain.Admin) error {
	a.Permissions = a.Permissions.Dedup()
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *AdminRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Admin{}).Error
}
