package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"zentropay/internal/core/apperror"
	"zentropay/internal/domain/reports"
	"zentropay/internal/infrastructure/http/v1/dto"
)

// ReportHandler handles HTTP requests for reports and dashboards.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportHandler creates a new report handler.
func NewReportHandler(base *BaseHandler, service *reports.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: base, service: service}
}

// Dashboard handles GET /reports/dashboard.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	var asOf time.Time
	if v, ok := dto.ParseDateQuery(c.Query("asOf")); ok {
		asOf = v
	}

	stats, err := h.service.GetDashboardStats(c.Request.Context(), asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, stats)
}

// Revenue handles GET /reports/revenue.
func (h *ReportHandler) Revenue(c *gin.Context) {
	from, okFrom := dto.ParseDateQuery(c.Query("from"))
	to, okTo := dto.ParseDateQuery(c.Query("to"))
	if !okFrom || !okTo {
		h.Error(c, apperror.NewValidation("from and to dates are required"))
		return
	}

	report, err := h.service.GetRevenueReport(c.Request.Context(), reports.RevenueReportFilter{
		FromDate: from,
		ToDate:   to,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// TopClients handles GET /reports/top-clients.
func (h *ReportHandler) TopClients(c *gin.Context) {
	filter := reports.TopClientsFilter{
		Limit: h.ParseIntQuery(c, "limit", 10),
	}
	if from, ok := dto.ParseDateQuery(c.Query("from")); ok {
		filter.FromDate = &from
	}
	if to, ok := dto.ParseDateQuery(c.Query("to")); ok {
		filter.ToDate = &to
	}

	items, err := h.service.GetTopClients(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, items)
}
