package service

import (
	"context"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/core/email"
	"eduplatform/internal/core/storage"
	"eduplatform/internal/core/token"
	"eduplatform/internal/domain"
	"eduplatform/internal/repo"
)

// UserService 账号资料与后台用户管理
type UserService struct {
	store  domain.Store
	assets storage.Storage
	tokens *token.Service
	emails *email.Service
	log    *zap.Logger
}

func NewUserService(store domain.Store, assets storage.Storage, tokens *token.Service, emails *email.Service, log *zap.Logger) *UserService {
	return &UserService{store: store, assets: assets, tokens: tokens, emails: emails, log: log}
}

func (s *UserService) mustFind(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "user not found")
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.mustFind(ctx, id)
}

func (s *UserService) List(ctx context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	users, total, err := s.store.Users().List(ctx, q)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return users, total, nil
}

type UpdateMeInput struct {
	Name  *string
	Email *string
}

// UpdateMe 换邮箱即回到未验证态，并重发验证邮件
func (s *UserService) UpdateMe(ctx context.Context, userID string, in UpdateMeInput) (*domain.User, error) {
	u, err := s.mustFind(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty", nil)
		}
		u.Name = name
	}

	emailChanged := false
	if in.Email != nil {
		next := normalizeEmail(*in.Email)
		if next == "" {
			return nil, apperr.Validation("email cannot be empty", nil)
		}
		if next != u.Email {
			exists, err := s.store.Users().ExistsByEmail(ctx, next)
			if err != nil {
				return nil, apperr.Internal(err)
			}
			if exists {
				return nil, apperr.Conflict(apperr.CodeUserAlreadyExists, "email already registered")
			}
			u.Email = next
			u.IsEmailVerified = false
			emailChanged = true
		}
	}

	if err := s.store.Users().Update(ctx, u); err != nil {
		if repo.IsDupKey(err) {
			return nil, apperr.Conflict(apperr.CodeUserAlreadyExists, "email already registered")
		}
		return nil, apperr.Internal(err)
	}

	if emailChanged {
		vt, err := s.tokens.IssueEmailVerification(u.ID)
		if err != nil {
			s.log.Error("issue verification token", zap.String("userId", u.ID), zap.Error(err))
		} else if err := s.emails.SendVerificationEmail(ctx, u.Email, vt); err != nil {
			s.log.Error("send verification email", zap.String("userId", u.ID), zap.Error(err))
		}
	}
	return u, nil
}

// UpdateAvatar 先传后删：新资产落库成功前不动旧头像
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, file *multipart.FileHeader) (*domain.User, error) {
	u, err := s.mustFind(ctx, userID)
	if err != nil {
		return nil, err
	}

	asset, err := s.assets.Upload(ctx, file)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	oldID := u.AvatarID
	u.AvatarURL = asset.URL
	u.AvatarID = asset.ID
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, apperr.Internal(err)
	}

	if oldID != "" {
		if err := s.assets.Delete(ctx, oldID); err != nil {
			s.log.Warn("purge old avatar", zap.String("assetId", oldID), zap.Error(err))
		}
	}
	return u, nil
}

// SetBanned 封禁同时踢掉在线会话并作废历史令牌
func (s *UserService) SetBanned(ctx context.Context, id string, banned bool) (*domain.User, error) {
	u, err := s.mustFind(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsBanned == banned {
		return u, nil
	}

	u.IsBanned = banned
	if banned {
		u.RefreshToken = nil
		u.TokenVersion++
	}
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *UserService) SoftDelete(ctx context.Context, id string) error {
	u, err := s.mustFind(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Users().ClearSession(ctx, u.ID); err != nil {
		return apperr.Internal(err)
	}
	if err := s.store.Users().SoftDelete(ctx, u.ID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// HardDelete 连档案一起物理删除，头像资产尽力清理
func (s *UserService) HardDelete(ctx context.Context, id string) error {
	u, err := s.mustFind(ctx, id)
	if err != nil {
		return err
	}

	err = s.store.InTx(ctx, func(tx domain.Store) error {
		switch u.Role {
		case domain.RoleStudent:
			if err := tx.Students().DeleteByUserID(ctx, u.ID); err != nil {
				return err
			}
		case domain.RoleInstructor:
			if err := tx.Instructors().DeleteByUserID(ctx, u.ID); err != nil {
				return err
			}
		case domain.RoleAdmin, domain.RoleSuperAdmin:
			if err := tx.Admins().DeleteByUserID(ctx, u.ID); err != nil {
				return err
			}
		}
		return tx.Users().HardDelete(ctx, u.ID)
	})
	if err != nil {
		return apperr.Internal(err)
	}

	if u.AvatarID != "" {
		if err := s.assets.Delete(ctx, u.AvatarID); err != nil {
			s.log.Warn("purge avatar", zap.String("assetId", u.AvatarID), zap.Error(err))
		}
	}
	return nil
}
