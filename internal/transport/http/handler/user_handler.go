package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/domain"
	"eduplatform/internal/service"
	"eduplatform/internal/transport/http/middleware"
	"eduplatform/internal/transport/http/response"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Mount authed 为登录态分组，admin 为 manage_users 权限分组
func (h *UserHandler) Mount(authed, admin *gin.RouterGroup) {
	authed.GET("/users/me", h.me)
	authed.PATCH("/users/me", h.updateMe)
	authed.PATCH("/users/me/avatar", h.updateAvatar)

	admin.GET("/users", h.list)
	admin.GET("/users/:id", h.get)
	admin.PATCH("/users/:id/ban", h.setBanned)
	admin.DELETE("/users/:id", h.remove)
}

// pageOut 列表统一分页外形
type pageOut struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func (h *UserHandler) me(c *gin.Context) {
	response.OK(c, "current user", gin.H{"user": middleware.CurrentUser(c)})
}

type updateMeIn struct {
	Name  *string `json:"name" binding:"omitempty,max=64"`
	Email *string `json:"email" binding:"omitempty,email"`
}

func (h *UserHandler) updateMe(c *gin.Context) {
	var in updateMeIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	u := middleware.CurrentUser(c)
	updated, err := h.users.UpdateMe(c.Request.Context(), u.ID, service.UpdateMeInput{Name: in.Name, Email: in.Email})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "profile updated", gin.H{"user": updated})
}

func (h *UserHandler) updateAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		response.Fail(c, apperr.Validation("avatar file is required", nil))
		return
	}
	u := middleware.CurrentUser(c)
	updated, err := h.users.UpdateAvatar(c.Request.Context(), u.ID, file)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "avatar updated", gin.H{"user": updated})
}

type listUsersIn struct {
	Role     string `form:"role"`
	Verified *bool  `form:"verified"`
	Banned   *bool  `form:"banned"`
	Search   string `form:"search"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
}

func (h *UserHandler) list(c *gin.Context) {
	var in listUsersIn
	if err := c.ShouldBindQuery(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid query", err.Error()))
		return
	}
	if in.Role != "" && !domain.Role(in.Role).Valid() {
		response.Fail(c, apperr.Validation("invalid role", map[string]string{"role": in.Role}))
		return
	}
	page, limit := domain.NormalizePage(in.Page, in.Limit)
	users, total, err := h.users.List(c.Request.Context(), domain.UserQuery{
		Role:            domain.Role(in.Role),
		IsEmailVerified: in.Verified,
		IsBanned:        in.Banned,
		Search:          in.Search,
		Page:            page,
		Limit:           limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "users", pageOut{Items: users, Total: total, Page: page, Limit: limit})
}

func (h *UserHandler) get(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "user", gin.H{"user": u})
}

type setBannedIn struct {
	Banned *bool `json:"banned" binding:"required"`
}

func (h *UserHandler) setBanned(c *gin.Context) {
	var in setBannedIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	u, err := h.users.SetBanned(c.Request.Context(), c.Param("id"), *in.Banned)
	if err != nil {
		response.Fail(c, err)
		return
	}
	msg := "user unbanned"
	if u.IsBanned {
		msg = "user banned"
	}
	response.OK(c, msg, gin.H{"user": u})
}

// remove 默认软删，?hard=true 物理删除并清理头像资产
func (h *UserHandler) remove(c *gin.Context) {
	hard, _ := strconv.ParseBool(c.Query("hard"))
	var err error
	if hard {
		err = h.users.HardDelete(c.Request.Context(), c.Param("id"))
	} else {
		err = h.users.SoftDelete(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "user deleted", nil)
}
