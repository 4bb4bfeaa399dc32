package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"eduplatform/internal/core/cache"
	"eduplatform/internal/core/server"
	"eduplatform/internal/core/token"
	"eduplatform/internal/domain"
	"eduplatform/internal/transport/http/handler"
	mdw "eduplatform/internal/transport/http/middleware"
)

type Deps struct {
	Log    *zap.Logger
	Tokens *token.Service
	Store  domain.Store
	Cache  *cache.Cache

	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Students    *handler.StudentHandler
	Instructors *handler.InstructorHandler
	Admins      *handler.AdminHandler
	Health      *handler.HealthHandler

	Production  bool
	CORSOrigins []string
}

// New 全部路由在此静态挂载：公共 → 登录态 → 权限分组
func New(d Deps) *gin.Engine {
	r := server.NewEngine(d.Log, server.Options{
		Production:  d.Production,
		CORSOrigins: d.CORSOrigins,
	})

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	d.Health.Mount(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	authed := api.Group("")
	authed.Use(mdw.Authenticate(d.Tokens, d.Store.Users()))

	adminRoles := []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin}
	manageUsers := authed.Group("",
		mdw.Authorize(d.Store.Admins(), d.Cache, adminRoles, domain.PermManageUsers))
	manageInstructors := authed.Group("",
		mdw.Authorize(d.Store.Admins(), d.Cache, adminRoles, domain.PermManageInstructors))
	superOnly := authed.Group("",
		mdw.Authorize(d.Store.Admins(), d.Cache, []domain.Role{domain.RoleSuperAdmin}))

	// 登录/注册/找回密码按来源 IP 单独限速
	authPublic := api.Group("", mdw.RateLimitPerIP(5, 10))

	d.Auth.Mount(authPublic, authed)
	d.Users.Mount(authed, manageUsers)
	d.Students.Mount(authed, manageUsers)
	d.Instructors.Mount(authed, manageInstructors)
	d.Admins.Mount(superOnly)

	return r
}
