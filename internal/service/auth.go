package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/core/email"
	"eduplatform/internal/core/token"
	"eduplatform/internal/domain"
	"eduplatform/internal/repo"
	"eduplatform/pkg/utils"
)

// AuthService 会话与凭证生命周期。
// 登录态以 users.refresh_token 单字段为准：非空即在线，单活跃会话。
type AuthService struct {
	store    domain.Store
	tokens   *token.Service
	emails   *email.Service
	resetTTL time.Duration
	log      *zap.Logger
}

func NewAuthService(store domain.Store, tokens *token.Service, emails *email.Service, resetTTL time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, emails: emails, resetTTL: resetTTL, log: log}
}

// AuthResult 注册/登录的产出。RefreshToken 为空表示本次未建立会话。
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type RegisterStudentInput struct {
	Name        string
	Email       string
	Password    string
	Stage       string
	ParentPhone string
}

type RegisterInstructorInput struct {
	Name     string
	Email    string
	Password string
	Bio      string
	Subjects []string
}

type RegisterAdminInput struct {
	Name        string
	Email       string
	Password    string
	Permissions []string
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// createUser 用户与角色档案同事务落库，邮箱撞库归并为 USER_ALREADY_EXISTS
func (s *AuthService) createUser(ctx context.Context, name, emailAddr, password string, role domain.Role, profile func(tx domain.Store, userID string) error) (*domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)

	exists, err := s.store.Users().ExistsByEmail(ctx, emailAddr)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, apperr.Conflict(apperr.CodeUserAlreadyExists, "email already registered")
	}

	u := &domain.User{
		ID:       utils.NewID(),
		Name:     strings.TrimSpace(name),
		Email:    emailAddr,
		Password: utils.HashPassword(password),
		Role:     role,
	}
	err = s.store.InTx(ctx, func(tx domain.Store) error {
		if err := tx.Users().Create(ctx, u); err != nil {
			if repo.IsDupKey(err) {
				return apperr.Conflict(apperr.CodeUserAlreadyExists, "email already registered")
			}
			return err
		}
		return profile(tx, u.ID)
	})
	if err != nil {
		if ae := apperr.As(err); ae != nil {
			return nil, ae
		}
		return nil, apperr.Internal(err)
	}

	s.sendVerification(ctx, u)
	return u, nil
}

// sendVerification 发信失败只记日志，不影响注册结果
func (s *AuthService) sendVerification(ctx context.Context, u *domain.User) {
	vt, err := s.tokens.IssueEmailVerification(u.ID)
	if err != nil {
		s.log.Error("issue verification token", zap.String("userId", u.ID), zap.Error(err))
		return
	}
	if err := s.emails.SendVerificationEmail(ctx, u.Email, vt); err != nil {
		s.log.Error("send verification email", zap.String("userId", u.ID), zap.Error(err))
	}
}

// RegisterStudent 学生注册即登录
func (s *AuthService) RegisterStudent(ctx context.Context, in RegisterStudentInput) (*AuthResult, error) {
	stage := domain.Stage(in.Stage)
	if !stage.Valid() {
		return nil, apperr.Validation("invalid stage", map[string]string{"stage": in.Stage})
	}

	u, err := s.createUser(ctx, in.Name, in.Email, in.Password, domain.RoleStudent, func(tx domain.Store, userID string) error {
		return tx.Students().Create(ctx, &domain.Student{
			ID:          utils.NewID(),
			UserID:      userID,
			Stage:       stage,
			ParentPhone: strings.TrimSpace(in.ParentPhone),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.establishSession(ctx, u)
}

func (s *AuthService) RegisterInstructor(ctx context.Context, in RegisterInstructorInput) (*AuthResult, error) {
	if len(in.Subjects) == 0 {
		return nil, apperr.Validation("at least one subject is required", nil)
	}
	for _, sub := range in.Subjects {
		if !domain.Subject(sub).Valid() {
			return nil, apperr.Validation("invalid subject", map[string]string{"subject": sub})
		}
	}

	u, err := s.createUser(ctx, in.Name, in.Email, in.Password, domain.RoleInstructor, func(tx domain.Store, userID string) error {
		return tx.Instructors().Create(ctx, &domain.Instructor{
			ID:       utils.NewID(),
			UserID:   userID,
			Bio:      strings.TrimSpace(in.Bio),
			Subjects: domain.StringList(in.Subjects),
		})
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u}, nil
}

func (s *AuthService) RegisterAdmin(ctx context.Context, in RegisterAdminInput) (*AuthResult, error) {
	if len(in.Permissions) == 0 {
		return nil, apperr.Validation("at least one permission is required", nil)
	}
	for _, p := range in.Permissions {
		if !domain.Permission(p).Valid() {
			return nil, apperr.Validation("invalid permission", map[string]string{"permission": p})
		}
	}

	u, err := s.createUser(ctx, in.Name, in.Email, in.Password, domain.RoleAdmin, func(tx domain.Store, userID string) error {
		return tx.Admins().Create(ctx, &domain.Admin{
			ID:          utils.NewID(),
			UserID:      userID,
			Permissions: domain.StringList(in.Permissions),
		})
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u}, nil
}

// establishSession 签发双令牌并原子占用会话位
func (s *AuthService) establishSession(ctx context.Context, u *domain.User) (*AuthResult, error) {
	rt, err := s.tokens.IssueRefresh(u.ID, u.TokenVersion)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := time.Now()
	ok, err := s.store.Users().ClaimSession(ctx, u.ID, rt, now)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Conflict(apperr.CodeAlreadyLoggedIn, "user already logged in from another session")
	}
	u.RefreshToken = &rt
	u.LastLogin = &now

	at, err := s.tokens.IssueAccess(token.AccessInput{
		UserID:          u.ID,
		Email:           u.Email,
		Role:            string(u.Role),
		IsEmailVerified: u.IsEmailVerified,
		IsBanned:        u.IsBanned,
		TokenVersion:    u.TokenVersion,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResult{User: u, AccessToken: at, RefreshToken: rt}, nil
}

// Login 未知邮箱与密码错误统一归并为 INVALID_CREDENTIALS
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (*AuthResult, error) {
	u, err := s.store.Users().FindByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil || !utils.CheckPassword(password, u.Password) {
		return nil, apperr.New(http.StatusUnauthorized, apperr.CodeInvalidCredentials, "invalid email or password")
	}
	if u.IsBanned {
		return nil, apperr.New(http.StatusForbidden, apperr.CodeAccountBanned, "account is banned")
	}
	return s.establishSession(ctx, u)
}

// Refresh 只换发访问令牌，不轮换刷新令牌
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", refreshTokenErr(err)
	}

	u, err := s.store.Users().FindByID(ctx, claims.UserID)
	if err != nil {
		return "", apperr.Internal(err)
	}
	if u == nil {
		return "", apperr.Unauthorized("user no longer exists")
	}
	if u.IsBanned {
		return "", apperr.New(http.StatusForbidden, apperr.CodeAccountBanned, "account is banned")
	}
	// 必须与库中当前会话令牌一致，换密/登出后旧令牌即作废
	if !u.HasActiveSession() || *u.RefreshToken != refreshToken {
		return "", apperr.New(http.StatusUnauthorized, apperr.CodeTokenInvalid, "refresh token is invalid")
	}
	if claims.TokenVersion != u.TokenVersion {
		return "", apperr.New(http.StatusUnauthorized, apperr.CodeTokenInvalid, "token has been invalidated")
	}

	at, err := s.tokens.IssueAccess(token.AccessInput{
		UserID:          u.ID,
		Email:           u.Email,
		Role:            string(u.Role),
		IsEmailVerified: u.IsEmailVerified,
		IsBanned:        u.IsBanned,
		TokenVersion:    u.TokenVersion,
	})
	if err != nil {
		return "", apperr.Internal(err)
	}
	return at, nil
}

func refreshTokenErr(err error) *apperr.Error {
	if errors.Is(err, token.ErrExpired) {
		return apperr.New(http.StatusUnauthorized, apperr.CodeTokenExpired, "refresh token expired")
	}
	return apperr.New(http.StatusUnauthorized, apperr.CodeTokenInvalid, "invalid refresh token")
}

// VerifyEmail 非幂等：重复验证按 EMAIL_ALREADY_VERIFIED 报错
func (s *AuthService) VerifyEmail(ctx context.Context, verificationToken string) (*domain.User, error) {
	claims, err := s.tokens.ParseEmailVerification(verificationToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, apperr.BadRequest(apperr.CodeTokenExpired, "verification token expired")
		}
		return nil, apperr.BadRequest(apperr.CodeTokenInvalid, "invalid verification token")
	}

	u, err := s.store.Users().FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "user not found")
	}
	if u.IsEmailVerified {
		return nil, apperr.BadRequest(apperr.CodeEmailAlreadyVerified, "email already verified")
	}

	u.IsEmailVerified = true
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.emails.SendWelcomeEmail(ctx, u.Email, u.Name); err != nil {
		s.log.Error("send welcome email", zap.String("userId", u.ID), zap.Error(err))
	}
	return u, nil
}

func (s *AuthService) ResendVerification(ctx context.Context, userID string) error {
	u, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if u == nil {
		return apperr.NotFound(apperr.CodeUserNotFound, "user not found")
	}
	if u.IsEmailVerified {
		return apperr.BadRequest(apperr.CodeEmailAlreadyVerified, "email already verified")
	}

	vt, err := s.tokens.IssueEmailVerification(u.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.emails.SendVerificationEmail(ctx, u.Email, vt); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ForgotPassword 对外恒定成功，不暴露邮箱是否注册。
// 库里只存 sha256 哈希，明文仅随邮件下发一次。
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	u, err := s.store.Users().FindByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		return apperr.Internal(err)
	}
	if u == nil {
		return nil
	}

	plain, err := utils.NewSecureToken()
	if err != nil {
		return apperr.Internal(err)
	}
	hash := utils.HashToken(plain)
	expires := time.Now().Add(s.resetTTL)
	u.ResetTokenHash = &hash
	u.ResetExpiresAt = &expires
	if err := s.store.Users().Update(ctx, u); err != nil {
		return apperr.Internal(err)
	}

	if err := s.emails.SendPasswordResetEmail(ctx, u.Email, plain); err != nil {
		// 发信失败则回收令牌，避免留下不可达的重置态
		u.ResetTokenHash = nil
		u.ResetExpiresAt = nil
		if uerr := s.store.Users().Update(ctx, u); uerr != nil {
			s.log.Error("rollback reset token", zap.String("userId", u.ID), zap.Error(uerr))
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	u, err := s.store.Users().FindByResetTokenHash(ctx, utils.HashToken(resetToken))
	if err != nil {
		return apperr.Internal(err)
	}
	if u == nil {
		return apperr.BadRequest(apperr.CodeTokenInvalid, "invalid or already used reset token")
	}
	if u.ResetExpiresAt == nil || time.Now().After(*u.ResetExpiresAt) {
		return apperr.BadRequest(apperr.CodeTokenExpired, "reset token expired")
	}

	u.Password = utils.HashPassword(newPassword)
	u.ResetTokenHash = nil
	u.ResetExpiresAt = nil
	u.RefreshToken = nil
	u.TokenVersion++ // 历史令牌全部作废
	if err := s.store.Users().Update(ctx, u); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if u == nil {
		return apperr.NotFound(apperr.CodeUserNotFound, "user not found")
	}
	if !utils.CheckPassword(currentPassword, u.Password) {
		return apperr.New(http.StatusUnauthorized, apperr.CodeInvalidCredentials, "current password is incorrect")
	}

	u.Password = utils.HashPassword(newPassword)
	u.RefreshToken = nil
	u.TokenVersion++
	if err := s.store.Users().Update(ctx, u); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Logout 幂等：无会话时也返回成功
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.store.Users().ClearSession(ctx, userID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Profile 用户 + 角色档案的显式拼装
type Profile struct {
	User       *domain.User       `json:"user"`
	Student    *domain.Student    `json:"student,omitempty"`
	Instructor *domain.Instructor `json:"instructor,omitempty"`
	Admin      *domain.Admin      `json:"admin,omitempty"`
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "user not found")
	}

	p := &Profile{User: u}
	switch u.Role {
	case domain.RoleStudent:
		p.Student, err = s.store.Students().FindByUserID(ctx, u.ID)
	case domain.RoleInstructor:
		p.Instructor, err = s.store.Instructors().FindByUserID(ctx, u.ID)
	case domain.RoleAdmin, domain.RoleSuperAdmin:
		p.Admin, err = s.store.Admins().FindByUserID(ctx, u.ID)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}
