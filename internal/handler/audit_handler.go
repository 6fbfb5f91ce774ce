package handler

import (
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	service service.AuditService
}

func NewAuditHandler(s service.AuditService) *AuditHandler {
	return &AuditHandler{service: s}
}

func (h *AuditHandler) List(c *fiber.Ctx) error {
	entityType := c.Params("entityType")
	var (
		f   model.AuditFilter
		err error
	)
	if f.EntityID, err = queryUUID(c, "entity_id"); err != nil {
		return badRequest(c, err.Error())
	}
	if f.TransactionID, err = queryUUID(c, "transaction_id"); err != nil {
		return badRequest(c, err.Error())
	}
	if f.StoreID, err = queryUUID(c, "store_id"); err != nil {
		return badRequest(c, err.Error())
	}
	if v := c.Query("type"); v != "" {
		rt := model.RevisionType(v)
		f.Type = &rt
	}
	if f.From, err = queryTime(c, "from"); err != nil {
		return badRequest(c, err.Error())
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		return badRequest(c, err.Error())
	}

	res, err := h.service.GetAllAudits(c.UserContext(), entityType, f, queryPage(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *AuditHandler) History(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	revs, err := h.service.ListRevisions(c.UserContext(), c.Params("entityType"), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": revs})
}
