package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eduplatform/internal/core/cache"
	"eduplatform/internal/core/database"
)

// HealthHandler 健康检查直达连接管理器，不经业务信封
type HealthHandler struct {
	db    *database.Manager
	cache *cache.Cache
}

func NewHealthHandler(db *database.Manager, c *cache.Cache) *HealthHandler {
	return &HealthHandler{db: db, cache: c}
}

func (h *HealthHandler) Mount(r *gin.Engine) {
	r.GET("/health", h.health)
}

func (h *HealthHandler) health(c *gin.Context) {
	ctx := c.Request.Context()

	dbOK := h.db.Health(ctx) == nil
	cacheOK := h.cache.Ping(ctx) == nil

	status := http.StatusOK
	overall := "up"
	if !dbOK || !cacheOK {
		status = http.StatusServiceUnavailable
		overall = "down"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"database": gin.H{
			"state": h.db.State().String(),
			"ok":    dbOK,
		},
		"cache": gin.H{"ok": cacheOK},
	})
}
