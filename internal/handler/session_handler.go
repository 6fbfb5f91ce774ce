package handler

import (
	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SessionHandler struct {
	service service.SessionService
}

func NewSessionHandler(s service.SessionService) *SessionHandler {
	return &SessionHandler{service: s}
}

type openSessionBody struct {
	EmployeeID    uuid.UUID       `json:"employee_id"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
}

type closeSessionBody struct {
	CloseAmount decimal.Decimal `json:"close_amount"`
}

func (h *SessionHandler) Open(c *fiber.Ctx) error {
	posID, err := paramUUID(c, "posId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body openSessionBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	session, err := h.service.Open(c.UserContext(), service.OpenSessionRequest{
		PosID:         posID,
		EmployeeID:    body.EmployeeID,
		OpeningAmount: body.OpeningAmount,
		By:            getActor(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Session opened", "data": session})
}

func (h *SessionHandler) Close(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body closeSessionBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	session, err := h.service.Close(c.UserContext(), service.CloseSessionRequest{
		SessionID:   id,
		CloseAmount: body.CloseAmount,
		By:          getActor(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Session closed", "data": session})
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	session, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": session})
}

func (h *SessionHandler) Summary(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	summary, err := h.service.Summary(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": summary})
}

func (h *SessionHandler) Current(c *fiber.Ctx) error {
	posID, err := paramUUID(c, "posId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	session, err := h.service.Current(c.UserContext(), posID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": session})
}

func (h *SessionHandler) ListByPos(c *fiber.Ctx) error {
	posID, err := paramUUID(c, "posId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.service.ListByPos(c.UserContext(), posID, queryPage(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}
