package domain

import (
	"context"
	"time"
)

type Admin struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"uniqueIndex;size:36;not null" json:"userId"`
	Permissions StringList `gorm:"type:text" json:"permissions"` // 非空、保存时去重

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Admin) TableName() string { return "admins" }

// HasAnyPermission 满足任一所需权限即放行
func (a *Admin) HasAnyPermission(required []Permission) bool {
	for _, p := range required {
		if a.Permissions.Contains(string(p)) {
			return true
		}
	}
	return false
}

type AdminRepository interface {
	Create(ctx context.Context, a *Admin) error
	FindByID(ctx context.Context, id string) (*Admin, error)
	FindByUserID(ctx context.Context, userID string) (*Admin, error)
	FindByPermission(ctx context.Context, p Permission) ([]Admin, error)
	Update(ctx context.Context, a *Admin) error
	DeleteByUserID(ctx context.Context, userID string) error
}
