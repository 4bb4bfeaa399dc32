package handler

import (
	"github.com/gin-gonic/gin"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/domain"
	"eduplatform/internal/service"
	"eduplatform/internal/transport/http/middleware"
	"eduplatform/internal/transport/http/response"
)

type InstructorHandler struct {
	instructors *service.InstructorService
}

func NewInstructorHandler(instructors *service.InstructorService) *InstructorHandler {
	return &InstructorHandler{instructors: instructors}
}

func (h *InstructorHandler) Mount(authed, admin *gin.RouterGroup) {
	authed.GET("/instructors/me", h.me)
	authed.PATCH("/instructors/me", h.updateMe)

	admin.GET("/instructors", h.list)
	admin.GET("/instructors/:id", h.get)
}

func (h *InstructorHandler) me(c *gin.Context) {
	u := middleware.CurrentUser(c)
	ins, err := h.instructors.MyProfile(c.Request.Context(), u.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "instructor profile", gin.H{"instructor": ins})
}

type updateInstructorIn struct {
	Bio      *string  `json:"bio" binding:"omitempty,max=1024"`
	Subjects []string `json:"subjects"`
}

func (h *InstructorHandler) updateMe(c *gin.Context) {
	var in updateInstructorIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	u := middleware.CurrentUser(c)
	ins, err := h.instructors.UpdateMyProfile(c.Request.Context(), u.ID, service.UpdateInstructorInput{
		Bio:      in.Bio,
		Subjects: in.Subjects,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "instructor profile updated", gin.H{"instructor": ins})
}

type listInstructorsIn struct {
	Subject string `form:"subject"`
	Search  string `form:"search"`
	Page    int    `form:"page,default=1"`
	Limit   int    `form:"limit,default=20"`
}

func (h *InstructorHandler) list(c *gin.Context) {
	var in listInstructorsIn
	if err := c.ShouldBindQuery(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid query", err.Error()))
		return
	}
	page, limit := domain.NormalizePage(in.Page, in.Limit)
	instructors, total, err := h.instructors.List(c.Request.Context(), domain.InstructorQuery{
		Subject: domain.Subject(in.Subject),
		Search:  in.Search,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "instructors", pageOut{Items: instructors, Total: total, Page: page, Limit: limit})
}

func (h *InstructorHandler) get(c *gin.Context) {
	ins, err := h.instructors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "instructor", gin.H{"instructor": ins})
}
