package handler

import (
	"github.com/gin-gonic/gin"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/domain"
	"eduplatform/internal/service"
	"eduplatform/internal/transport/http/middleware"
	"eduplatform/internal/transport/http/response"
)

type StudentHandler struct {
	students *service.StudentService
}

func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

func (h *StudentHandler) Mount(authed, admin *gin.RouterGroup) {
	authed.GET("/students/me", h.me)
	authed.PATCH("/students/me", h.updateMe)

	admin.GET("/students", h.list)
	admin.GET("/students/:id", h.get)
}

func (h *StudentHandler) me(c *gin.Context) {
	u := middleware.CurrentUser(c)
	st, err := h.students.MyProfile(c.Request.Context(), u.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "student profile", gin.H{"student": st})
}

type updateStudentIn struct {
	Stage       *string `json:"stage"`
	ParentPhone *string `json:"parentPhone" binding:"omitempty,max=32"`
}

func (h *StudentHandler) updateMe(c *gin.Context) {
	var in updateStudentIn
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid request body", err.Error()))
		return
	}
	u := middleware.CurrentUser(c)
	st, err := h.students.UpdateMyProfile(c.Request.Context(), u.ID, service.UpdateStudentInput{
		Stage:       in.Stage,
		ParentPhone: in.ParentPhone,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "student profile updated", gin.H{"student": st})
}

type listStudentsIn struct {
	Stage  string `form:"stage"`
	Search string `form:"search"`
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
}

func (h *StudentHandler) list(c *gin.Context) {
	var in listStudentsIn
	if err := c.ShouldBindQuery(&in); err != nil {
		response.Fail(c, apperr.Validation("invalid query", err.Error()))
		return
	}
	page, limit := domain.NormalizePage(in.Page, in.Limit)
	students, total, err := h.students.List(c.Request.Context(), domain.StudentQuery{
		Stage:  domain.Stage(in.Stage),
		Search: in.Search,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "students", pageOut{Items: students, Total: total, Page: page, Limit: limit})
}

func (h *StudentHandler) get(c *gin.Context) {
	st, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "student", gin.H{"student": st})
}
