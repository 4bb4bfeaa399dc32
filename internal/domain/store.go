package domain

import "context"

// Store 聚合各仓储并提供事务边界。
// 注册时 User 与角色档案必须在同一事务内创建，两者同生同灭。
type Store interface {
	Users() UserRepository
	Students() StudentRepository
	Instructors() InstructorRepository
	Admins() AdminRepository

	// InTx 在事务内执行 fn；fn 收到的 Store 绑定到该事务。
	InTx(ctx context.Context, fn func(Store) error) error
}
