package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Dhruv-9927/HostelGig/internal/core/auth"
	resp "github.com/Dhruv-9927/HostelGig/internal/transport/http/response"
)

// AuthJWT 解析 Bearer token 并把 userId/role 放进上下文。
// requireRole 非空时还要求角色匹配。
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(resp.HTTPStatus(resp.CodeUnauthorized),
				resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(resp.HTTPStatus(resp.CodeUnauthorized),
				resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			c.AbortWithStatusJSON(resp.HTTPStatus(resp.CodeForbidden),
				resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set("claims", claims)
		c.Set("userId", claims.UID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
