package handler

import (
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SettlementHandler struct {
	settlements  service.SettlementService
	transactions service.TransactionService
}

func NewSettlementHandler(s service.SettlementService, t service.TransactionService) *SettlementHandler {
	return &SettlementHandler{settlements: s, transactions: t}
}

type saleBody struct {
	service.TransactionRequest
	ClientID *uuid.UUID `json:"client_id"`
}

type purchaseBody struct {
	service.TransactionRequest
	ProviderID uuid.UUID `json:"provider_id"`
}

type clientBody struct {
	ClientID *uuid.UUID `json:"client_id"`
}

type providerBody struct {
	ProviderID uuid.UUID `json:"provider_id"`
}

// scope takes store, POS and actor from the route. Body values for them are ignored.
func scope(c *fiber.Ctx, req *service.TransactionRequest) error {
	storeID, err := paramUUID(c, "storeId")
	if err != nil {
		return err
	}
	posID, err := paramUUID(c, "posId")
	if err != nil {
		return err
	}
	req.StoreID = storeID
	req.PosID = &posID
	req.By = getActor(c)
	return nil
}

func (h *SettlementHandler) CreateSale(c *fiber.Ctx) error {
	var body saleBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if err := scope(c, &body.TransactionRequest); err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.settlements.Sale(c.UserContext(), service.SaleRequest{
		TransactionRequest: body.TransactionRequest,
		ClientID:           body.ClientID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Sale recorded", "data": res})
}

func (h *SettlementHandler) CreatePurchase(c *fiber.Ctx) error {
	var body purchaseBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if err := scope(c, &body.TransactionRequest); err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.settlements.Purchase(c.UserContext(), service.PurchaseRequest{
		TransactionRequest: body.TransactionRequest,
		ProviderID:         body.ProviderID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Purchase recorded", "data": res})
}

func (h *SettlementHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if err := scope(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.transactions.CreateTransaction(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": res})
}

func (h *SettlementHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	t, err := h.transactions.FindByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": t})
}

func (h *SettlementHandler) ListTransactions(c *fiber.Ctx) error {
	filter, err := transactionFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if v := c.Query("type"); v != "" {
		t := model.TransactionType(v)
		filter.Type = &t
	}
	res, err := h.transactions.FindAll(c.UserContext(), filter, queryPage(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *SettlementHandler) UpdateTransaction(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req service.UpdateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	req.By = getActor(c)
	t, err := h.transactions.UpdateTransaction(c.UserContext(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Transaction updated", "data": t})
}

func (h *SettlementHandler) GetSale(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.settlements.FindSale(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": res})
}

func (h *SettlementHandler) GetPurchase(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.settlements.FindPurchase(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": res})
}

func (h *SettlementHandler) ListSales(c *fiber.Ctx) error {
	filter, err := transactionFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.settlements.ListSales(c.UserContext(), filter, queryPage(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *SettlementHandler) ListPurchases(c *fiber.Ctx) error {
	filter, err := transactionFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.settlements.ListPurchases(c.UserContext(), filter, queryPage(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *SettlementHandler) ReassignClient(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body clientBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	res, err := h.settlements.ReassignSaleClient(c.UserContext(), id, body.ClientID, getActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sale updated", "data": res})
}

func (h *SettlementHandler) ReassignProvider(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body providerBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	res, err := h.settlements.ReassignPurchaseProvider(c.UserContext(), id, body.ProviderID, getActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase updated", "data": res})
}

func transactionFilter(c *fiber.Ctx) (model.TransactionFilter, error) {
	var (
		f   model.TransactionFilter
		err error
	)
	if f.StoreID, err = queryUUID(c, "store_id"); err != nil {
		return f, err
	}
	if f.SessionPosID, err = queryUUID(c, "session_pos_id"); err != nil {
		return f, err
	}
	if v := c.Query("payment_method"); v != "" {
		pm := model.PaymentMethod(v)
		f.PaymentMethod = &pm
	}
	if f.From, err = queryTime(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		return f, err
	}
	return f, nil
}
