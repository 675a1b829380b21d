package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/salesdash_go_server/internal/pkg/response"
	"github.com/qs3c/salesdash_go_server/internal/service"
)

type MetricsHandler struct {
	metricsService *service.MetricsService
}

func NewMetricsHandler(metricsService *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{
		metricsService: metricsService,
	}
}

// Get 实时看板指标（直接拉取 CRM 计算）
// GET /api/v1/metrics?view=main
func (h *MetricsHandler) Get(c *gin.Context) {
	view := c.DefaultQuery("view", "main")

	resp, err := h.metricsService.Metrics(c.Request.Context(), view)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUpstream):
			response.UpstreamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}
