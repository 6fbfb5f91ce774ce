package service

import (
	"context"
	"errors"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SettlementService settles sales and purchases: session check, stock movement,
// recording, linkage and cash movement commit together or not at all.
type SettlementService interface {
	Sale(ctx context.Context, req SaleRequest) (*SettlementResult, error)
	Purchase(ctx context.Context, req PurchaseRequest) (*SettlementResult, error)
	FindSale(ctx context.Context, transactionID uuid.UUID) (*SettlementResult, error)
	FindPurchase(ctx context.Context, transactionID uuid.UUID) (*SettlementResult, error)
	ListSales(ctx context.Context, filter model.TransactionFilter, page model.Page) (model.PageResult[SettlementResult], error)
	ListPurchases(ctx context.Context, filter model.TransactionFilter, page model.Page) (model.PageResult[SettlementResult], error)
	ReassignSaleClient(ctx context.Context, transactionID uuid.UUID, clientID *uuid.UUID, by string) (*SettlementResult, error)
	ReassignPurchaseProvider(ctx context.Context, transactionID, providerID uuid.UUID, by string) (*SettlementResult, error)
}

type SaleRequest struct {
	TransactionRequest
	ClientID *uuid.UUID `json:"client_id,omitempty"`
}

type PurchaseRequest struct {
	TransactionRequest
	ProviderID uuid.UUID `json:"provider_id" validate:"uuid_required"`
}

type SettlementResult struct {
	Transaction *model.Transaction `json:"transaction"`
	Sale        *model.Sale        `json:"sale,omitempty"`
	Purchase    *model.Purchase    `json:"purchase,omitempty"`
}

var errNotSettled = errors.New("transaction has no settlement of this kind")

type settlementService struct {
	Deps
	stock    StockService
	recorder TransactionService
	sessions SessionService
}

func NewSettlementService(d Deps, stock StockService, recorder TransactionService, sessions SessionService) SettlementService {
	return &settlementService{Deps: d.withDefaults(), stock: stock, recorder: recorder, sessions: sessions}
}

func (s *settlementService) Sale(ctx context.Context, req SaleRequest) (*SettlementResult, error) {
	const op = "Sale"
	if err := checkTransactionRequest(op, req.TransactionRequest); err != nil {
		return nil, err
	}

	var res *SettlementResult
	var alerts []model.LowStockAlert
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		alerts = alerts[:0]
		session, err := s.sessions.RequireOpenTx(tx, req.SessionPosID, req.StoreID, req.PosID)
		if err != nil {
			return err
		}
		if req.ClientID != nil {
			if _, err := s.Catalog.FindClient(tx, *req.ClientID); err != nil {
				return storeErr(op, "client", *req.ClientID, err)
			}
		}

		for _, l := range req.Details {
			if l.Quantity.IsZero() {
				continue
			}
			alert, err := s.stock.DecreaseStockTx(tx, l.ProductID, req.StoreID, l.Quantity)
			if err != nil {
				return err
			}
			if alert != nil {
				alerts = append(alerts, *alert)
			}
		}

		t, err := s.recorder.RecordTx(tx, model.TxSale, req.TransactionRequest, Party{ClientID: req.ClientID})
		if err != nil {
			return err
		}
		sale := &model.Sale{TransactionID: t.ID, ClientID: req.ClientID, CreatedBy: req.By, UpdatedBy: req.By}
		if err := s.Settlements.CreateSale(tx, sale); err != nil {
			return storeErr(op, "sale", t.ID, err)
		}
		links := transactionLinks(t)
		links.ClientID = req.ClientID
		if err := appendRevision(tx, s.Revisions, model.EntitySale, t.ID, model.RevisionAdd, sale, links, req.By); err != nil {
			return storeErr(op, "sale", t.ID, err)
		}

		if t.PaymentMethod == model.PaymentCash {
			if err := s.sessions.MoveCashTx(tx, session.PosID, t.Total); err != nil {
				return err
			}
		}
		res = &SettlementResult{Transaction: t, Sale: sale}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, res, alerts)
	return res, nil
}

func (s *settlementService) Purchase(ctx context.Context, req PurchaseRequest) (*SettlementResult, error) {
	const op = "Purchase"
	if err := validate(op, req); err != nil {
		return nil, err
	}
	if err := checkTransactionRequest(op, req.TransactionRequest); err != nil {
		return nil, err
	}

	var res *SettlementResult
	var alerts []model.LowStockAlert
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		alerts = alerts[:0]
		session, err := s.sessions.RequireOpenTx(tx, req.SessionPosID, req.StoreID, req.PosID)
		if err != nil {
			return err
		}
		if _, err := s.Catalog.FindProvider(tx, req.ProviderID); err != nil {
			return storeErr(op, "provider", req.ProviderID, err)
		}

		for _, l := range req.Details {
			if l.Quantity.IsZero() {
				continue
			}
			alert, err := s.stock.IncreaseStockTx(tx, l.ProductID, req.StoreID, l.Quantity)
			if err != nil {
				return err
			}
			if alert != nil {
				alerts = append(alerts, *alert)
			}
		}

		providerID := req.ProviderID
		t, err := s.recorder.RecordTx(tx, model.TxPurchase, req.TransactionRequest, Party{ProviderID: &providerID})
		if err != nil {
			return err
		}
		purchase := &model.Purchase{TransactionID: t.ID, ProviderID: req.ProviderID, CreatedBy: req.By, UpdatedBy: req.By}
		if err := s.Settlements.CreatePurchase(tx, purchase); err != nil {
			return storeErr(op, "purchase", t.ID, err)
		}
		links := transactionLinks(t)
		links.ProviderID = &providerID
		if err := appendRevision(tx, s.Revisions, model.EntityPurchase, t.ID, model.RevisionAdd, purchase, links, req.By); err != nil {
			return storeErr(op, "purchase", t.ID, err)
		}

		if t.PaymentMethod == model.PaymentCash {
			if err := s.sessions.MoveCashTx(tx, session.PosID, t.Total.Neg()); err != nil {
				return err
			}
		}
		res = &SettlementResult{Transaction: t, Purchase: purchase}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, res, alerts)
	return res, nil
}

func (s *settlementService) FindSale(ctx context.Context, transactionID uuid.UUID) (*SettlementResult, error) {
	sale, err := s.Settlements.FindSale(ctx, transactionID)
	if err != nil {
		return nil, storeErr("FindSale", "sale", transactionID, err)
	}
	t, err := s.Transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, storeErr("FindSale", "transaction", transactionID, err)
	}
	return &SettlementResult{Transaction: t, Sale: sale}, nil
}

func (s *settlementService) FindPurchase(ctx context.Context, transactionID uuid.UUID) (*SettlementResult, error) {
	purchase, err := s.Settlements.FindPurchase(ctx, transactionID)
	if err != nil {
		return nil, storeErr("FindPurchase", "purchase", transactionID, err)
	}
	t, err := s.Transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, storeErr("FindPurchase", "transaction", transactionID, err)
	}
	return &SettlementResult{Transaction: t, Purchase: purchase}, nil
}

func (s *settlementService) ListSales(ctx context.Context, filter model.TransactionFilter, page model.Page) (model.PageResult[SettlementResult], error) {
	const op = "ListSales"
	page = page.Normalize()
	sales, total, err := s.Settlements.ListSales(ctx, filter, page)
	if err != nil {
		return model.PageResult[SettlementResult]{}, storeErr(op, "sale", nil, err)
	}
	ids := make([]uuid.UUID, len(sales))
	for i, sale := range sales {
		ids[i] = sale.TransactionID
	}
	txs, err := s.Transactions.FindByIDs(ctx, ids)
	if err != nil {
		return model.PageResult[SettlementResult]{}, storeErr(op, "transaction", nil, err)
	}
	items := make([]SettlementResult, 0, len(sales))
	for i := range sales {
		t := txs[sales[i].TransactionID]
		items = append(items, SettlementResult{Transaction: &t, Sale: &sales[i]})
	}
	return model.NewPageResult(items, total, page), nil
}

func (s *settlementService) ListPurchases(ctx context.Context, filter model.TransactionFilter, page model.Page) (model.PageResult[SettlementResult], error) {
	const op = "ListPurchases"
	page = page.Normalize()
	purchases, total, err := s.Settlements.ListPurchases(ctx, filter, page)
	if err != nil {
		return model.PageResult[SettlementResult]{}, storeErr(op, "purchase", nil, err)
	}
	ids := make([]uuid.UUID, len(purchases))
	for i, p := range purchases {
		ids[i] = p.TransactionID
	}
	txs, err := s.Transactions.FindByIDs(ctx, ids)
	if err != nil {
		return model.PageResult[SettlementResult]{}, storeErr(op, "transaction", nil, err)
	}
	items := make([]SettlementResult, 0, len(purchases))
	for i := range purchases {
		t := txs[purchases[i].TransactionID]
		items = append(items, SettlementResult{Transaction: &t, Purchase: &purchases[i]})
	}
	return model.NewPageResult(items, total, page), nil
}

func (s *settlementService) ReassignSaleClient(ctx context.Context, transactionID uuid.UUID, clientID *uuid.UUID, by string) (*SettlementResult, error) {
	const op = "ReassignSaleClient"
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		if _, err := s.Settlements.FindSaleTx(tx, transactionID, repository.LockUpdate); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newErr(ErrNotFound, op, "sale", transactionID, errNotSettled)
			}
			return storeErr(op, "sale", transactionID, err)
		}
		if clientID != nil {
			if _, err := s.Catalog.FindClient(tx, *clientID); err != nil {
				return storeErr(op, "client", *clientID, err)
			}
		}
		if err := s.Settlements.UpdateSaleClient(tx, transactionID, clientID, by); err != nil {
			return storeErr(op, "sale", transactionID, err)
		}
		sale, err := s.Settlements.FindSaleTx(tx, transactionID, repository.LockNone)
		if err != nil {
			return storeErr(op, "sale", transactionID, err)
		}
		t, err := s.Transactions.FindTx(tx, transactionID, repository.LockNone)
		if err != nil {
			return storeErr(op, "transaction", transactionID, err)
		}
		links := transactionLinks(t)
		links.ClientID = clientID
		return storeErr(op, "sale", transactionID,
			appendRevision(tx, s.Revisions, model.EntitySale, transactionID, model.RevisionMod, sale, links, by))
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("sale client reassigned", "transaction_id", transactionID, "client_id", clientID)
	return s.FindSale(ctx, transactionID)
}

func (s *settlementService) ReassignPurchaseProvider(ctx context.Context, transactionID, providerID uuid.UUID, by string) (*SettlementResult, error) {
	const op = "ReassignPurchaseProvider"
	if providerID == uuid.Nil {
		return nil, invalid(op, "provider is required")
	}
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		if _, err := s.Settlements.FindPurchaseTx(tx, transactionID, repository.LockUpdate); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newErr(ErrNotFound, op, "purchase", transactionID, errNotSettled)
			}
			return storeErr(op, "purchase", transactionID, err)
		}
		if _, err := s.Catalog.FindProvider(tx, providerID); err != nil {
			return storeErr(op, "provider", providerID, err)
		}
		if err := s.Settlements.UpdatePurchaseProvider(tx, transactionID, providerID, by); err != nil {
			return storeErr(op, "purchase", transactionID, err)
		}
		purchase, err := s.Settlements.FindPurchaseTx(tx, transactionID, repository.LockNone)
		if err != nil {
			return storeErr(op, "purchase", transactionID, err)
		}
		t, err := s.Transactions.FindTx(tx, transactionID, repository.LockNone)
		if err != nil {
			return storeErr(op, "transaction", transactionID, err)
		}
		links := transactionLinks(t)
		links.ProviderID = &providerID
		return storeErr(op, "purchase", transactionID,
			appendRevision(tx, s.Revisions, model.EntityPurchase, transactionID, model.RevisionMod, purchase, links, by))
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("purchase provider reassigned", "transaction_id", transactionID, "provider_id", providerID)
	return s.FindPurchase(ctx, transactionID)
}

func (s *settlementService) afterCommit(ctx context.Context, res *SettlementResult, alerts []model.LowStockAlert) {
	t := res.Transaction
	s.Logger.Info("settlement committed",
		"transaction_id", t.ID,
		"type", t.Type,
		"store_id", t.StoreID,
		"session_pos_id", t.SessionPosID,
		"payment_method", t.PaymentMethod,
		"total", t.Total.String(),
		"lines", len(t.Details),
	)
	sink := s.sink()
	sink.deliver(ctx, alerts)
	sink.publish(EventSettlement, res)
}
