package handler

import (
	"net/http"
	"time"

	"invoicedesk/internal/service"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	revenueService    service.RevenueService
}

func NewStatisticsHandler(statisticsService service.StatisticsService, revenueService service.RevenueService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, revenueService: revenueService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.GetDashboard)
	router.GET("/workspace", h.GetWorkspace)
	router.GET("/statistics/revenue", h.GetRevenueStatistics)
}

// @Summary      Get Dashboard Statistics
// @Description  Product count, inventory value, invoice count, revenue, low stock items and recent invoices
// @Tags         Statistics
// @Produce      json
// @Success      200 {object} response.Response{data=model.DashboardStats}
// @Failure      401 {object} response.Response "Unauthorized"
// @Failure      500 {object} response.Response "Internal server error"
// @Security     BearerAuth
// @Router       /api/dashboard [get]
func (h *StatisticsHandler) GetDashboard(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.statisticsService.Dashboard(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, stats)
}

// @Summary      Get workspace
// @Description  Inventory, invoices, profile and dashboard loaded in one call
// @Tags         Statistics
// @Produce      json
// @Success      200 {object} response.Response{data=service.Workspace}
// @Failure      401 {object} response.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /api/workspace [get]
func (h *StatisticsHandler) GetWorkspace(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	ws, err := h.statisticsService.Refresh(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, ws)
}

// @Summary      Get revenue statistics
// @Description  Invoice count, revenue, tax and paid amount per period, bounded by time
// @Tags         Statistics
// @Produce      json
// @Param        group_by   query string false "day, week, month (default), quarter or year"
// @Param        start_date query string false "Start Date (RFC3339, default: start of the year)"
// @Param        end_date   query string false "End Date (RFC3339, default: now)"
// @Success      200 {object} response.Response{data=service.RevenueReport}
// @Failure      400 {object} response.Response "Invalid date format"
// @Failure      401 {object} response.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /api/statistics/revenue [get]
func (h *StatisticsHandler) GetRevenueStatistics(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	startDateStr := c.Query("start_date")
	endDateStr := c.Query("end_date")

	var startDate, endDate time.Time
	var err error

	// Default to the current year if no dates are provided
	now := time.Now().UTC()
	if startDateStr == "" {
		startDate = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	} else {
		startDate, err = time.Parse(time.RFC3339, startDateStr)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "invalid start_date format, expected RFC3339")
			return
		}
	}

	if endDateStr == "" {
		endDate = now
	} else {
		endDate, err = time.Parse(time.RFC3339, endDateStr)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "invalid end_date format, expected RFC3339")
			return
		}
	}

	report, err := h.revenueService.GetRevenueStatistics(c.Request.Context(), ownerID, service.RevenueFilter{
		GroupBy: c.Query("group_by"),
		From:    startDate,
		To:      endDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, report)
}
