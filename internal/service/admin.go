package service

import (
	"context"

	"go.uber.org/zap"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/core/cache"
	"eduplatform/internal/domain"
)

type AdminService struct {
	store domain.Store
	cache *cache.Cache
	log   *zap.Logger
}

func NewAdminService(store domain.Store, c *cache.Cache, log *zap.Logger) *AdminService {
	return &AdminService{store: store, cache: c, log: log}
}

// ListByPermission 按权限反查管理员，供 super_admin 盘点授权面
func (s *AdminService) ListByPermission(ctx context.Context, p domain.Permission) ([]domain.Admin, error) {
	if !p.Valid() {
		return nil, apperr.Validation("invalid permission", map[string]string{"permission": string(p)})
	}
	admins, err := s.store.Admins().FindByPermission(ctx, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return admins, nil
}

// UpdatePermissions 整组替换目标管理员的权限集
func (s *AdminService) UpdatePermissions(ctx context.Context, userID string, permissions []string) (*domain.Admin, error) {
	if len(permissions) == 0 {
		return nil, apperr.Validation("at least one permission is required", nil)
	}
	for _, p := range permissions {
		if !domain.Permission(p).Valid() {
			return nil, apperr.Validation("invalid permission", map[string]string{"permission": p})
		}
	}

	a, err := s.store.Admins().FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if a == nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "admin profile not found")
	}

	a.Permissions = domain.StringList(permissions)
	if err := s.store.Admins().Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	// 鉴权走缓存，改权后立即失效
	if err := s.cache.Delete(ctx, cache.KeyAdminPerms(userID)); err != nil {
		s.log.Warn("invalidate admin perms cache", zap.String("userId", userID), zap.Error(err))
	}
	return a, nil
}
