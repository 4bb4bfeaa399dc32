package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/core/cache"
	"eduplatform/internal/core/token"
	"eduplatform/internal/domain"
	"eduplatform/internal/transport/http/response"
)

const ctxUserKey = "authUser"

// CurrentUser 取经 Authenticate 放入的登录用户；未认证路由上为 nil
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

// Authenticate 访问令牌 → 库中活体用户。
// 逐级校验：令牌 → 用户存在 → 未封禁 → 会话在线 → 版本一致。
func Authenticate(tokens *token.Service, users domain.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			response.Fail(c, apperr.Unauthorized("missing access token"))
			return
		}

		claims, err := tokens.ParseAccess(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				response.Fail(c, apperr.New(http.StatusUnauthorized, apperr.CodeTokenExpired, "access token expired"))
			} else {
				response.Fail(c, apperr.New(http.StatusUnauthorized, apperr.CodeTokenInvalid, "invalid access token"))
			}
			return
		}

		u, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Fail(c, apperr.Internal(err))
			return
		}
		if u == nil {
			response.Fail(c, apperr.Unauthorized("user no longer exists"))
			return
		}
		if u.IsBanned {
			response.Fail(c, apperr.New(http.StatusForbidden, apperr.CodeAccountBanned, "account is banned"))
			return
		}
		if !u.HasActiveSession() {
			response.Fail(c, apperr.New(http.StatusUnauthorized, apperr.CodeSessionExpired, "session expired, please login again"))
			return
		}
		if claims.TokenVersion != u.TokenVersion {
			response.Fail(c, apperr.New(http.StatusUnauthorized, apperr.CodeTokenInvalid, "token has been invalidated"))
			return
		}

		c.Set(ctxUserKey, u)
		c.Next()
	}
}

const adminPermsTTL = 5 * time.Minute

// Authorize 角色闭集静态放行；admin 再按细粒度权限过一道。
// super_admin 不做权限检查。管理员档案查询走 redis，singleflight 合并回源。
func Authorize(admins domain.AdminRepository, c2 *cache.Cache, roles []domain.Role, perms ...domain.Permission) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			response.Fail(c, apperr.Unauthorized("authentication required"))
			return
		}
		if _, ok := allowed[u.Role]; !ok {
			response.Fail(c, apperr.Forbidden("insufficient role"))
			return
		}
		if len(perms) == 0 || u.Role == domain.RoleSuperAdmin {
			c.Next()
			return
		}
		if u.Role != domain.RoleAdmin {
			c.Next()
			return
		}

		profile, err := cache.GetOrLoadJSON(c2, c.Request.Context(), cache.KeyAdminPerms(u.ID), adminPermsTTL,
			func(ctx context.Context) (*domain.Admin, error) {
				return admins.FindByUserID(ctx, u.ID)
			})
		if err != nil {
			response.Fail(c, apperr.Internal(err))
			return
		}
		if profile == nil || !profile.HasAnyPermission(perms) {
			response.Fail(c, apperr.Forbidden("missing required permission"))
			return
		}
		c.Next()
	}
}

// RequireEmailVerified 仅放行已验证邮箱的账号
func RequireEmailVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			response.Fail(c, apperr.Unauthorized("authentication required"))
			return
		}
		if !u.IsEmailVerified {
			response.Fail(c, apperr.New(http.StatusForbidden, apperr.CodeEmailNotVerified, "email verification required"))
			return
		}
		c.Next()
	}
}
