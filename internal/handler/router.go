package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/kube-rca/incident-responder/internal/config"
)

// NewRouter - 헬스체크 + SNS 웹훅 라우팅
func NewRouter(cfg config.ServerConfig, processor EventProcessor) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/ping", Ping)
	router.GET("/", Root)

	webhook := router.Group("/webhook", WebhookAuthMiddleware(cfg.JWTSecret))
	webhook.POST("/sns", NewAlertHandler(processor).Webhook)

	return router
}
