package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"eduplatform/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindByResetTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "reset_token_hash = ?", hash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *UserRepo) List(ctx context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if q.Role != "" {
		tx = tx.Where("role = ?", q.Role)
	}
	if q.IsEmailVerified != nil {
		tx = tx.Where("is_email_verified = ?", *q.IsEmailVerified)
	}
	if q.IsBanned != nil {
		tx = tx.Where("is_banned = ?", *q.IsBanned)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		tx = tx.Where("email LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := domain.NormalizePage(q.Page, q.Limit)
	var users []domain.User
	err := tx.Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// ClaimSession 单条件 UPDATE 保证单活跃会话：refresh_token 非空时占用失败
func (r *UserRepo) ClaimSession(ctx context.Context, id, refreshToken string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND refresh_token IS NULL", id).
		Updates(map[string]any{
			"refresh_token": refreshToken,
			"last_login":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *UserRepo) ClearSession(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("refresh_token", nil).Error
}

func (r *UserRepo) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{}).Error
}

func (r *UserRepo) HardDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&domain.User{}).Error
}

