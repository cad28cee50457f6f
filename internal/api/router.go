package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter はルーティングを設定する。
func SetupRouter(engine *gin.Engine, h *Handler) {
	// ヘルスチェック
	engine.GET("/health", h.HandleHealth)

	// Prometheusメトリクス
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := engine.Group("/api/v1")
	{
		v1.GET("/pools", h.HandlePools)
		v1.GET("/pools/:name", h.HandlePool)
		v1.GET("/bindings", h.HandleBindings)
		v1.GET("/dialogs", h.HandleDialogs)
	}
}

// NewEngine はミドルウェア設定済みのginエンジンを生成する。
func NewEngine(h *Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(RecoveryMiddleware())
	engine.Use(LoggingMiddleware())
	SetupRouter(engine, h)
	return engine
}
