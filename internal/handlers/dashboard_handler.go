package handlers

import (
	"formflow/internal/services"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler serves the dashboard aggregates.
type DashboardHandler struct {
	service *services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// RegisterRoutes registers the dashboard routes. admin may be nil.
func (h *DashboardHandler) RegisterRoutes(router fiber.Router, admin fiber.Handler) {
	dashRoutes := router.Group("/dashboard")
	dashRoutes.Get("/stats", chain(admin, h.HandleStats)...)
	dashRoutes.Get("/trends", chain(admin, h.HandleTrends)...)
}

// HandleStats returns the KPI counters.
func (h *DashboardHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": stats})
}

// HandleTrends returns per-day submission counts. days defaults to 7 and
// is clamped to [1, 365].
func (h *DashboardHandler) HandleTrends(c *fiber.Ctx) error {
	days := c.QueryInt("days", services.DefaultTrendDays)
	points, err := h.service.Trends(c.UserContext(), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": points})
}
