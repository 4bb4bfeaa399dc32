package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	Production  bool
	CORSOrigins []string
}

// NewEngine 引擎底座：最外层兜底 recovery + CORS。
// 业务中间件链（限流、信封、访问日志）由 transport 层继续挂。
func NewEngine(l *zap.Logger, opts Options) *gin.Engine {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(ginzap.RecoveryWithZap(l, true))

	cc := cors.DefaultConfig()
	if len(opts.CORSOrigins) > 0 {
		cc.AllowOrigins = opts.CORSOrigins
	} else {
		cc.AllowAllOrigins = true
	}
	cc.AllowCredentials = len(opts.CORSOrigins) > 0 // 凭证模式必须显式白名单
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization")
	cc.ExposeHeaders = append(cc.ExposeHeaders, "Authorization", "X-Request-ID")
	r.Use(cors.New(cc))

	return r
}

func StartHTTP(srv *http.Server, l *zap.Logger) error {
	l.Info("http starting", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
