package handler

import (
	"context"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StockHandler struct {
	service service.StockService
}

func NewStockHandler(s service.StockService) *StockHandler {
	return &StockHandler{service: s}
}

type quantityBody struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type transferBody struct {
	ToStoreID uuid.UUID       `json:"to_store_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func (h *StockHandler) stockKey(c *fiber.Ctx) (productID, storeID uuid.UUID, err error) {
	if storeID, err = paramUUID(c, "storeId"); err != nil {
		return
	}
	productID, err = paramUUID(c, "productId")
	return
}

func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	productID, storeID, err := h.stockKey(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	stock, err := h.service.GetStock(c.UserContext(), productID, storeID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": stock})
}

func (h *StockHandler) AddStock(c *fiber.Ctx) error {
	return h.mutate(c, fiber.StatusCreated, "Stock added", h.service.AddStock)
}

func (h *StockHandler) UpdateStock(c *fiber.Ctx) error {
	return h.mutate(c, fiber.StatusOK, "Stock updated", h.service.UpdateStock)
}

func (h *StockHandler) IncreaseStock(c *fiber.Ctx) error {
	return h.mutate(c, fiber.StatusOK, "Stock increased", h.service.IncreaseStock)
}

func (h *StockHandler) DecreaseStock(c *fiber.Ctx) error {
	return h.mutate(c, fiber.StatusOK, "Stock decreased", h.service.DecreaseStock)
}

func (h *StockHandler) mutate(c *fiber.Ctx, status int, msg string,
	fn func(ctx context.Context, req service.StockRequest) (*model.Stock, error)) error {
	productID, storeID, err := h.stockKey(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body quantityBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	stock, err := fn(c.UserContext(), service.StockRequest{ProductID: productID, StoreID: storeID, Quantity: body.Quantity})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(status).JSON(fiber.Map{"message": msg, "data": stock})
}

func (h *StockHandler) RemoveStock(c *fiber.Ctx) error {
	productID, storeID, err := h.stockKey(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.service.RemoveStock(c.UserContext(), productID, storeID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *StockHandler) TransferStock(c *fiber.Ctx) error {
	productID, storeID, err := h.stockKey(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body transferBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	res, err := h.service.TransferStock(c.UserContext(), service.TransferRequest{
		ProductID:   productID,
		FromStoreID: storeID,
		ToStoreID:   body.ToStoreID,
		Quantity:    body.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock transferred", "data": res})
}

func (h *StockHandler) ListByStore(c *fiber.Ctx) error {
	storeID, err := paramUUID(c, "storeId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	filter := model.StockFilter{
		Name:    c.Query("name"),
		SKU:     c.Query("sku"),
		Barcode: c.Query("barcode"),
		Brand:   c.Query("brand"),
	}
	if filter.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return badRequest(c, err.Error())
	}
	if filter.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return badRequest(c, err.Error())
	}
	if filter.MinStock, err = queryDecimal(c, "min_stock"); err != nil {
		return badRequest(c, err.Error())
	}
	if filter.MaxStock, err = queryDecimal(c, "max_stock"); err != nil {
		return badRequest(c, err.Error())
	}
	if filter.CategoryIDs, err = queryUUIDs(c, "category_id"); err != nil {
		return badRequest(c, err.Error())
	}
	if filter.ProviderIDs, err = queryUUIDs(c, "provider_id"); err != nil {
		return badRequest(c, err.Error())
	}

	res, err := h.service.ListByStore(c.UserContext(), storeID, filter, queryPage(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}
