package middleware

import (
	"kling-studio/app/auth"
	"kling-studio/app/config"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// tokenFromRequest 优先读取 Authorization 头，其次读取登录 Cookie
func tokenFromRequest(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", "Authorization header format must be Bearer {token}"
		}
		return parts[1], ""
	}

	if cookie, err := c.Cookie(auth.CookieName); err == nil && cookie != "" {
		return cookie, ""
	}

	return "", "Authorization header is required"
}

// JWTAuth JWT认证中间件，用于 JSON 接口
func JWTAuth(cfg *config.Config) gin.HandlerFunc {
	jwtService := auth.NewJWTService(cfg)

	return func(c *gin.Context) {
		token, problem := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": problem,
				"data":    nil,
			})
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Invalid token: " + err.Error(),
				"data":    nil,
			})
			return
		}

		// 将用户信息存储到上下文中
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// PageAuth 页面认证中间件，未登录时跳转到登录页
func PageAuth(cfg *config.Config) gin.HandlerFunc {
	jwtService := auth.NewJWTService(cfg)

	return func(c *gin.Context) {
		token, _ := tokenFromRequest(c)
		if token == "" {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			c.SetCookie(auth.CookieName, "", -1, "/", "", false, true)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}
