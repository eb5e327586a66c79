package router

import (
	"mirage-codex-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, authCfg middleware.AuthConfig, h Handlers) {
	requireAuth := middleware.Auth(authCfg)
	optionalAuth := middleware.OptionalAuth(authCfg)

	// 书籍浏览与互动
	books := v1.Group("/books")
	{
		books.GET("", h.Book.ListBooks)
		books.GET("/search", h.Book.ListBooks)
		books.GET("/:bid", h.Book.GetBook)
		books.GET("/:bid/sections", h.Book.ListSections)

		books.POST("/:bid/reactions/:kind", requireAuth, h.Book.ToggleReaction)
		books.POST("/:bid/views", optionalAuth, h.Book.RecordView)
		books.POST("/:bid/cover", requireAuth, h.Image.EnsureCover)
	}

	// 版次与页面
	editions := v1.Group("/editions")
	{
		editions.GET("/:eid/pages/:num", h.Generation.GetPage)
		editions.POST("/:eid/pages/:num", requireAuth, h.Generation.SavePage)
		editions.POST("/:eid/pages/:num/stream", requireAuth, h.Generation.StreamPage) // SSE
	}

	// 页面插图（命中缓存可匿名读取，未命中时在应用层校验身份）
	images := v1.Group("/images")
	{
		images.GET("/page", optionalAuth, h.Image.EnsurePageImage)
	}

	// 积分
	credits := v1.Group("/credits")
	{
		credits.GET("/me", requireAuth, h.Credit.GetBalance)
	}
}
