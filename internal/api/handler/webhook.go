package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/salesdash_go_server/internal/model/dto"
	"github.com/qs3c/salesdash_go_server/internal/service"
)

type WebhookHandler struct {
	webhookService *service.WebhookService
}

func NewWebhookHandler(webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// Receive 接收 JobNimbus Webhook 推送
// POST /api/v1/webhooks/jobnimbus
// 这是对外部 CRM 的契约，响应格式不走统一包装
func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	result, err := h.webhookService.Ingest(c.Request.Context(), c.GetHeader("x-jn-secret"), payload)
	if err != nil {
		if errors.Is(err, service.ErrBadSecret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Webhook ingest failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if result.Skipped {
		c.JSON(http.StatusOK, dto.WebhookSkipped{Skipped: true, Reason: result.Reason})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookAccepted{OK: true, Stage: result.Stage})
}
