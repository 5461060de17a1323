package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "github.com/Dhruv-9927/HostelGig/internal/transport/http/response"
)

// SimpleRecovery panic 兜底，不向客户端泄露内部细节
func SimpleRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					resp.Error(resp.CodeServerError, "internal error"))
			}
		}()
		c.Next()
	}
}
