package handler

import (
	"github.com/gin-gonic/gin"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/domain"
	"eduplatform/internal/service"
	"eduplatform/internal/transport/http/response"
)

// AdminHandler 管理员授权面的盘点与调整，仅 super_admin 可达
type AdminHandler struct {
	admins *service.AdminService
}

func NewAdminHandler(admins *service.AdminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

func (h *AdminHandler) Mount(super *gin.RouterGroup) {
	super.GET("/admins", h.listByPermission)
	super.PATCH("/admins/:userId/permissions", h.updatePermissions)
}

func (h *AdminHandler) listByPermission(c *gin.Context) {
	p := c.Query("permission")
	if p == "" {
		response.Fail(c, apperr.Validation("permission query parameter is required", nil))
		return
	}
	admins, err := h.admins.ListByPermission(c.Request.Context(), domain.Permission(p))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "admins", gin.H{"admins": admins})
}

type updatePermissionsIn struct {
	Permissions []string `json:"permissions" binding:"required,min=1"`
}

func (h *AdminHandler) updatePermissions(c *gin.Context) {
	var in updatePermissionsIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	a, err := h.admins.UpdatePermissions(c.Request.Context(), c.Param("userId"), in.Permissions)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "permissions updated", gin.H{"admin": a})
}
