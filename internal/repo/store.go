package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"eduplatform/internal/domain"
)

// Store gorm 实现的仓储聚合；InTx 内的 Store 绑定到事务
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Users() domain.UserRepository             { return &UserRepo{db: s.db} }
func (s *Store) Students() domain.StudentRepository       { return &StudentRepo{db: s.db} }
func (s *Store) Instructors() domain.InstructorRepository { return &InstructorRepo{db: s.db} }
func (s *Store) Admins() domain.AdminRepository           { return &AdminRepo{db: s.db} }

func (s *Store) InTx(ctx context.Context, fn func(domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Student{},
		&domain.Instructor{},
		&domain.Admin{},
	)
}

// isDupKey 不依赖 gorm.ErrDuplicatedKey，避免驱动差异导致漏判
func isDupKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}

// IsDupKey 供服务层判断唯一约束冲突（如同一用户重复建档）
func IsDupKey(err error) bool { return isDupKey(err) }
