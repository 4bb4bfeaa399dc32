package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/service"
	"eduplatform/internal/transport/http/middleware"
	"eduplatform/internal/transport/http/response"
)

const refreshCookieName = "refreshToken"

// AuthHandler 会话生命周期的 HTTP 面。
// 访问令牌走 Authorization 响应头，刷新令牌走 httpOnly cookie。
type AuthHandler struct {
	auth         *service.AuthService
	cookieMaxAge time.Duration
	secureCookie bool
}

func NewAuthHandler(auth *service.AuthService, cookieMaxAge time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieMaxAge: cookieMaxAge, secureCookie: secureCookie}
}

func (h *AuthHandler) Mount(public, authed *gin.RouterGroup) {
	public.POST("/auth/register/student", h.registerStudent)
	public.POST("/auth/register/instructor", h.registerInstructor)
	public.POST("/auth/register/admin", h.registerAdmin)
	public.POST("/auth/login", h.login)
	public.POST("/auth/refresh-token", h.refresh)
	public.GET("/auth/verify-email", h.verifyEmail)
	public.POST("/auth/forgot-password", h.forgotPassword)
	public.POST("/auth/reset-password", h.resetPassword)

	authed.POST("/auth/resend-verification", h.resendVerification)
	authed.POST("/auth/change-password", h.changePassword)
	authed.POST("/auth/logout", h.logout)
	authed.GET("/auth/profile", h.profile)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, int(h.cookieMaxAge.Seconds()), "/api/v1/auth", "", h.secureCookie, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/api/v1/auth", "", h.secureCookie, true)
}

// emitSession 有会话则下发双令牌：头 + cookie
func (h *AuthHandler) emitSession(c *gin.Context, res *service.AuthResult) {
	if res.AccessToken != "" {
		c.Header("Authorization", "Bearer "+res.AccessToken)
	}
	if res.RefreshToken != "" {
		h.setRefreshCookie(c, res.RefreshToken)
	}
}

type registerStudentIn struct {
	Name        string `json:"name" binding:"required,max=64"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	Stage       string `json:"stage" binding:"required"`
	ParentPhone string `json:"parentPhone" binding:"omitempty,max=32"`
}

func (h *AuthHandler) registerStudent(c *gin.Context) {
	var in registerStudentIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	res, err := h.auth.RegisterStudent(c.Request.Context(), service.RegisterStudentInput{
		Name:        in.Name,
		Email:       in.Email,
		Password:    in.Password,
		Stage:       in.Stage,
		ParentPhone: in.ParentPhone,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.emitSession(c, res)
	response.Created(c, "registration successful", gin.H{"user": res.User, "accessToken": res.AccessToken})
}

type registerInstructorIn struct {
	Name     string   `json:"name" binding:"required,max=64"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8,max=72"`
	Bio      string   `json:"bio" binding:"omitempty,max=1024"`
	Subjects []string `json:"subjects" binding:"required,min=1"`
}

func (h *AuthHandler) registerInstructor(c *gin.Context) {
	var in registerInstructorIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	res, err := h.auth.RegisterInstructor(c.Request.Context(), service.RegisterInstructorInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Bio:      in.Bio,
		Subjects: in.Subjects,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "registration successful, please verify your email", gin.H{"user": res.User})
}

type registerAdminIn struct {
	Name        string   `json:"name" binding:"required,max=64"`
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required,min=8,max=72"`
	Permissions []string `json:"permissions" binding:"required,min=1"`
}

func (h *AuthHandler) registerAdmin(c *gin.Context) {
	var in registerAdminIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	res, err := h.auth.RegisterAdmin(c.Request.Context(), service.RegisterAdminInput{
		Name:        in.Name,
		Email:       in.Email,
		Password:    in.Password,
		Permissions: in.Permissions,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "registration successful, please verify your email", gin.H{"user": res.User})
}

type loginIn struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var in loginIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	res, err := h.auth.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.emitSession(c, res)
	response.OK(c, "login successful", gin.H{"user": res.User, "accessToken": res.AccessToken})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	rt, err := c.Cookie(refreshCookieName)
	if err != nil || rt == "" {
		response.Fail(c, apperr.New(http.StatusUnauthorized, apperr.CodeTokenInvalid, "missing refresh token"))
		return
	}
	at, err := h.auth.Refresh(c.Request.Context(), rt)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.Header("Authorization", "Bearer "+at)
	response.OK(c, "token refreshed", gin.H{"accessToken": at})
}

func (h *AuthHandler) verifyEmail(c *gin.Context) {
	t := c.Query("token")
	if t == "" {
		response.Fail(c, apperr.Validation("missing token", nil))
		return
	}
	u, err := h.auth.VerifyEmail(c.Request.Context(), t)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "email verified", gin.H{"user": u})
}

func (h *AuthHandler) resendVerification(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if err := h.auth.ResendVerification(c.Request.Context(), u.ID); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "verification email sent", nil)
}

type forgotPasswordIn struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *AuthHandler) forgotPassword(c *gin.Context) {
	var in forgotPasswordIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), in.Email); err != nil {
		response.Fail(c, err)
		return
	}
	// 不区分邮箱是否注册
	response.OK(c, "if that email is registered, a reset link has been sent", nil)
}

type resetPasswordIn struct {
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func (h *AuthHandler) resetPassword(c *gin.Context) {
	t := c.Query("token")
	if t == "" {
		response.Fail(c, apperr.Validation("missing token", nil))
		return
	}
	var in resetPasswordIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), t, in.Password); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "password has been reset, please login again", nil)
}

type changePasswordIn struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

func (h *AuthHandler) changePassword(c *gin.Context) {
	var in changePasswordIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	u := middleware.CurrentUser(c)
	if err := h.auth.ChangePassword(c.Request.Context(), u.ID, in.CurrentPassword, in.NewPassword); err != nil {
		response.Fail(c, err)
		return
	}
	h.clearRefreshCookie(c)
	response.OK(c, "password changed, please login again", nil)
}

func (h *AuthHandler) logout(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if err := h.auth.Logout(c.Request.Context(), u.ID); err != nil {
		response.Fail(c, err)
		return
	}
	h.clearRefreshCookie(c)
	response.OK(c, "logged out", nil)
}

func (h *AuthHandler) profile(c *gin.Context) {
	u := middleware.CurrentUser(c)
	p, err := h.auth.GetProfile(c.Request.Context(), u.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "profile", p)
}
