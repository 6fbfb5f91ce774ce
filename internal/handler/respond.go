package handler

import (
	"errors"
	"strings"
	"time"

	"go-inventory-pos/internal/middleware"
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/obs"
	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func getActor(c *fiber.Ctx) string {
	return middleware.GetActor(c)
}

var statusByCode = map[string]int{
	"INVALID_INPUT":      fiber.StatusBadRequest,
	"NOT_FOUND":          fiber.StatusNotFound,
	"INSUFFICIENT_STOCK": fiber.StatusUnprocessableEntity,
	"SESSION_CLOSED":     fiber.StatusConflict,
	"ALREADY_CLOSED":     fiber.StatusConflict,
	"INTEGRITY":          fiber.StatusConflict,
	"CONFLICT":           fiber.StatusConflict,
	"TRANSIENT":          fiber.StatusServiceUnavailable,
}

// errorCode maps a service failure to its HTTP status and stable code.
func errorCode(err error) (int, string) {
	code := service.Code(err)
	if status, ok := statusByCode[code]; ok {
		return status, code
	}
	return fiber.StatusInternalServerError, code
}

func writeError(c *fiber.Ctx, err error) error {
	status, code := errorCode(err)
	body := fiber.Map{"error": err.Error(), "code": code}

	var se *service.Error
	if errors.As(err, &se) {
		if se.Entity != "" {
			body["entity"] = se.Entity
		}
		if se.ID != "" {
			body["id"] = se.ID
		}
		body["op"] = se.Op
	}
	if status == fiber.StatusInternalServerError {
		obs.Logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		body["error"] = "Internal Server Error"
	}
	if status == fiber.StatusServiceUnavailable {
		c.Set(fiber.HeaderRetryAfter, "1")
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "code": "INVALID_INPUT"})
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errors.New("invalid " + name)
	}
	return id, nil
}

func queryPage(c *fiber.Ctx) model.Page {
	return model.Page{Number: c.QueryInt("page", 0), Size: c.QueryInt("size", model.DefaultPageSize)}.Normalize()
}

func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, errors.New("invalid " + key)
	}
	return &id, nil
}

func queryUUIDs(c *fiber.Ctx, key string) ([]uuid.UUID, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, part := range strings.Split(v, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.New("invalid " + key)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, errors.New("invalid " + key)
	}
	return &d, nil
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, errors.New("invalid " + key + ", want RFC3339")
	}
	ts = ts.UTC()
	return &ts, nil
}
