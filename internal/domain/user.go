package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Name            string     `gorm:"size:64;not null" json:"name"`
	Email           string     `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Password        string     `gorm:"size:100;not null" json:"-"`
	Role            Role       `gorm:"size:16;not null;default:student" json:"role"`
	IsEmailVerified bool       `gorm:"not null;default:false" json:"isEmailVerified"`
	IsBanned        bool       `gorm:"not null;default:false" json:"isBanned"`
	AvatarURL       string     `gorm:"size:255" json:"avatarUrl"`
	AvatarID        string     `gorm:"size:191" json:"-"`
	RefreshToken    *string    `gorm:"size:512" json:"-"` // 非空即存在活跃会话
	TokenVersion    int        `gorm:"not null;default:0" json:"-"`
	ResetTokenHash  *string    `gorm:"size:64;index" json:"-"`
	ResetExpiresAt  *time.Time `json:"-"`
	LastLogin       *time.Time `json:"lastLogin"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// HasActiveSession refreshToken 存在即视为已登录
func (u *User) HasActiveSession() bool {
	return u.RefreshToken != nil && *u.RefreshToken != ""
}

type UserQuery struct {
	Role            Role
	IsEmailVerified *bool
	IsBanned        *bool
	Search          string // name/email 模糊搜
	Page            int
	Limit           int
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByResetTokenHash(ctx context.Context, hash string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, q UserQuery) ([]User, int64, error)
	Update(ctx context.Context, u *User) error

	// ClaimSession 单活跃会话的原子占用：仅当 refresh_token 为空时写入。
	// 返回 false 表示已有会话占用（并发登录时至多一个请求胜出）。
	ClaimSession(ctx context.Context, id, refreshToken string, at time.Time) (bool, error)
	ClearSession(ctx context.Context, id string) error

	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}
