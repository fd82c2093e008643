package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/metrics"
)

// Metrics records request count, latency and in-flight requests per matched route.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.URL.Path == "/metrics" {
			ctx.Next()
			return
		}
		done := metrics.RequestStarted()
		ctx.Next()
		done(ctx.Request.Method, ctx.FullPath(), ctx.Writer.Status())
	}
}
