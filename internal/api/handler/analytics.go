package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/salesdash_go_server/internal/pkg/response"
	"github.com/qs3c/salesdash_go_server/internal/service"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// StageConversions 各 record type 的阶段快照统计
// GET /api/v1/stage-conversions?period=all
func (h *AnalyticsHandler) StageConversions(c *gin.Context) {
	period := c.DefaultQuery("period", "all")

	resp, err := h.analyticsService.StageConversions(period)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, resp)
}

// JobTypes 各 record type 的汇总指标与转化漏斗
// GET /api/v1/job-types
func (h *AnalyticsHandler) JobTypes(c *gin.Context) {
	resp, err := h.analyticsService.JobTypes()
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, resp)
}

// WorkflowDetail 单个 workflow 的详细指标
// GET /api/v1/workflows/:workflowType
func (h *AnalyticsHandler) WorkflowDetail(c *gin.Context) {
	slug := c.Param("workflowType")

	resp, err := h.analyticsService.WorkflowDetail(slug)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownWorkflow):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}
