// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"
	"strings"

	"mirage-codex-api/pkg/logger"
	"mirage-codex-api/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthConfig 认证配置
type AuthConfig struct {
	// Secret JWT 密钥
	Secret string
	// Issuer JWT 签发者
	Issuer string
	// Enabled 是否启用认证
	Enabled bool
}

// Auth 认证中间件，要求有效的 Bearer Token
func Auth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		claims, ok := parseBearer(c, jwtManager)
		if !ok {
			return
		}

		injectIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth 可选认证：Token 存在则解析注入身份，缺失直接放行。
// 插图命中路径允许匿名读取，由处理器对未命中路径做二次身份检查。
func OptionalAuth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		if !cfg.Enabled || c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		claims, ok := parseBearer(c, jwtManager)
		if !ok {
			return
		}

		injectIdentity(c, claims)
		c.Next()
	}
}

func parseBearer(c *gin.Context, jwtManager *utils.JWTManager) (*utils.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abortUnauthorized(c, "missing authorization header")
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		abortUnauthorized(c, "invalid authorization format")
		return nil, false
	}

	claims, err := jwtManager.ParseToken(parts[1])
	if err != nil {
		msg := "invalid token"
		if err == utils.ErrExpiredToken {
			msg = "token expired"
		}
		abortUnauthorized(c, msg)
		return nil, false
	}

	if claims.Type != "access" {
		abortUnauthorized(c, "invalid token type")
		return nil, false
	}

	return claims, true
}

func injectIdentity(c *gin.Context, claims *utils.Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("plan", claims.Plan)

	ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, claims.UserID)
	c.Request = c.Request.WithContext(ctx)
}

// abortUnauthorized 终止请求并返回 401
func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":     401,
		"message":  msg,
		"trace_id": c.GetString("trace_id"),
	})
}
