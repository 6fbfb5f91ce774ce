package handler

import (
	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// GetStockStats returns counts and valuation of a store's stock
func (h *ReportHandler) GetStockStats(c *fiber.Ctx) error {
	storeID, err := paramUUID(c, "storeId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	stats, err := h.service.GetStockStats(c.UserContext(), storeID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": stats})
}

// GetMovement returns daily sales and purchase totals for charts
// Query params: days (default 7)
func (h *ReportHandler) GetMovement(c *fiber.Ctx) error {
	storeID, err := paramUUID(c, "storeId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	days := c.QueryInt("days", 7)

	data, err := h.service.GetMovement(c.UserContext(), storeID, days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}
