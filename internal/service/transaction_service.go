package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionService records priced transactions and their line items.
type TransactionService interface {
	CreateTransaction(ctx context.Context, req TransactionRequest) (*model.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindAll(ctx context.Context, filter model.TransactionFilter, page model.Page) (model.PageResult[model.Transaction], error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, req UpdateTransactionRequest) (*model.Transaction, error)

	// RecordTx prices and persists a transaction of the given type inside the
	// caller's transaction. The caller has already checked the session.
	// party is written onto the ADD revision with the rest of the linkage.
	RecordTx(tx *gorm.DB, txType model.TransactionType, req TransactionRequest, party Party) (*model.Transaction, error)
}

// Party is the client of a sale or the provider of a purchase.
type Party struct {
	ClientID   *uuid.UUID
	ProviderID *uuid.UUID
}

type LineRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gte=0"`
}

type TransactionRequest struct {
	StoreID       uuid.UUID           `json:"store_id" validate:"uuid_required"`
	PosID         *uuid.UUID          `json:"pos_id,omitempty"`
	SessionPosID  uuid.UUID           `json:"session_pos_id" validate:"uuid_required"`
	PaymentMethod model.PaymentMethod `json:"payment_method" validate:"required"`
	Description   string              `json:"description" validate:"max=2000"`
	Details       []LineRequest       `json:"details" validate:"required,min=1,dive"`
	By            string              `json:"-"`
}

// UpdateTransactionRequest changes the only mutable fields. Nil means unchanged.
type UpdateTransactionRequest struct {
	Description   *string              `json:"description,omitempty" validate:"omitempty,max=2000"`
	PaymentMethod *model.PaymentMethod `json:"payment_method,omitempty"`
	By            string               `json:"-"`
}

type transactionService struct {
	Deps
	sessions SessionService
}

func NewTransactionService(d Deps, sessions SessionService) TransactionService {
	return &transactionService{Deps: d.withDefaults(), sessions: sessions}
}

func (s *transactionService) CreateTransaction(ctx context.Context, req TransactionRequest) (*model.Transaction, error) {
	const op = "CreateTransaction"
	if err := checkTransactionRequest(op, req); err != nil {
		return nil, err
	}

	var created *model.Transaction
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		if _, err := s.sessions.RequireOpenTx(tx, req.SessionPosID, req.StoreID, req.PosID); err != nil {
			return err
		}
		var err error
		created, err = s.RecordTx(tx, model.TxOther, req, Party{})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("transaction recorded",
		"transaction_id", created.ID,
		"type", created.Type,
		"total", created.Total.String(),
		"session_pos_id", created.SessionPosID,
	)
	return created, nil
}

func (s *transactionService) RecordTx(tx *gorm.DB, txType model.TransactionType, req TransactionRequest, party Party) (*model.Transaction, error) {
	const op = "RecordTransaction"
	if err := checkTransactionRequest(op, req); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.Details))
	for _, l := range req.Details {
		ids = append(ids, l.ProductID)
	}
	products, err := s.Catalog.FindProducts(tx, ids)
	if err != nil {
		return nil, storeErr(op, "product", nil, err)
	}

	t := &model.Transaction{
		BaseModel:     model.BaseModel{CreatedBy: req.By, UpdatedBy: req.By},
		DateTime:      time.Now().UTC(),
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
		Type:          txType,
		StoreID:       req.StoreID,
		SessionPosID:  req.SessionPosID,
		Details:       make([]model.DetailTransaction, 0, len(req.Details)),
	}
	total := decimal.Zero
	for _, l := range req.Details {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, newErr(ErrNotFound, op, "product", l.ProductID, nil)
		}
		if p.Disabled {
			return nil, newErr(ErrInvalidInput, op, "product", l.ProductID, errProductDisabled)
		}
		line := priceLine(l.Quantity, p.Price)
		line.ProductID = p.ID
		t.Details = append(t.Details, line)
		total = total.Add(line.Subtotal)
	}
	t.Total = total

	if err := s.Transactions.Create(tx, t); err != nil {
		return nil, storeErr(op, "transaction", nil, err)
	}
	links := transactionLinks(t)
	links.ClientID = party.ClientID
	links.ProviderID = party.ProviderID
	if err := appendRevision(tx, s.Revisions, model.EntityTransaction, t.ID, model.RevisionAdd, t, links, req.By); err != nil {
		return nil, storeErr(op, "transaction", t.ID, err)
	}
	return t, nil
}

func (s *transactionService) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, err := s.Transactions.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("FindTransaction", "transaction", id, err)
	}
	return t, nil
}

func (s *transactionService) FindAll(ctx context.Context, filter model.TransactionFilter, page model.Page) (model.PageResult[model.Transaction], error) {
	page = page.Normalize()
	items, total, err := s.Transactions.FindAll(ctx, filter, page)
	if err != nil {
		return model.PageResult[model.Transaction]{}, storeErr("FindTransactions", "transaction", nil, err)
	}
	return model.NewPageResult(items, total, page), nil
}

// UpdateTransaction edits description and payment method. A payment change needs the
// session to be open and moves POS cash when it crosses CASH on a sale or purchase.
func (s *transactionService) UpdateTransaction(ctx context.Context, id uuid.UUID, req UpdateTransactionRequest) (*model.Transaction, error) {
	const op = "UpdateTransaction"
	if err := validate(op, req); err != nil {
		return nil, err
	}
	if req.PaymentMethod != nil && !validPaymentMethod(*req.PaymentMethod) {
		return nil, invalid(op, "unknown payment method %q", *req.PaymentMethod)
	}
	if req.Description == nil && req.PaymentMethod == nil {
		return nil, invalid(op, "nothing to update")
	}

	var updated *model.Transaction
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		current, err := s.Transactions.FindTx(tx, id, repository.LockUpdate)
		if err != nil {
			return storeErr(op, "transaction", id, err)
		}

		fields := map[string]interface{}{"updated_by": req.By}
		if req.Description != nil {
			fields["description"] = *req.Description
		}
		if req.PaymentMethod != nil && *req.PaymentMethod != current.PaymentMethod {
			session, err := s.sessions.RequireOpenTx(tx, current.SessionPosID, current.StoreID, nil)
			if err != nil {
				return err
			}
			if err := s.sessions.MoveCashTx(tx, session.PosID, cashShift(current, *req.PaymentMethod)); err != nil {
				return err
			}
			fields["payment_method"] = *req.PaymentMethod
		}

		if err := s.Transactions.Update(tx, id, fields); err != nil {
			return storeErr(op, "transaction", id, err)
		}
		if updated, err = s.Transactions.FindTx(tx, id, repository.LockNone); err != nil {
			return storeErr(op, "transaction", id, err)
		}
		return storeErr(op, "transaction", id,
			appendRevision(tx, s.Revisions, model.EntityTransaction, id, model.RevisionMod, updated, transactionLinks(updated), req.By))
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("transaction updated", "transaction_id", id, "payment_method", updated.PaymentMethod)
	return updated, nil
}

// cashShift is the POS cash movement caused by switching a transaction to next.
func cashShift(t *model.Transaction, next model.PaymentMethod) decimal.Decimal {
	sign := cashSign(t.Type)
	if sign.IsZero() {
		return decimal.Zero
	}
	was, will := t.PaymentMethod == model.PaymentCash, next == model.PaymentCash
	switch {
	case was && !will:
		return t.Total.Mul(sign).Neg()
	case !was && will:
		return t.Total.Mul(sign)
	}
	return decimal.Zero
}

// cashSign is +1 for money entering the drawer and -1 for money leaving it.
func cashSign(t model.TransactionType) decimal.Decimal {
	switch t {
	case model.TxSale:
		return decimal.NewFromInt(1)
	case model.TxPurchase:
		return decimal.NewFromInt(-1)
	}
	return decimal.Zero
}

// priceLine snapshots the unit price and rounds the subtotal half away from zero.
func priceLine(qty, unitPrice decimal.Decimal) model.DetailTransaction {
	return model.DetailTransaction{
		Quantity:  qty,
		UnitPrice: unitPrice,
		Subtotal:  qty.Mul(unitPrice).Round(model.MoneyScale),
	}
}

func checkTransactionRequest(op string, req TransactionRequest) error {
	if len(req.Details) == 0 {
		return invalid(op, "a transaction needs at least one line")
	}
	if err := validate(op, req); err != nil {
		return err
	}
	if !validPaymentMethod(req.PaymentMethod) {
		return invalid(op, "unknown payment method %q", req.PaymentMethod)
	}
	for _, l := range req.Details {
		if err := checkScale(op, "quantity", l.Quantity, model.QuantityScale); err != nil {
			return err
		}
	}
	return nil
}

func transactionLinks(t *model.Transaction) model.RevisionLinks {
	id, store, session := t.ID, t.StoreID, t.SessionPosID
	return model.RevisionLinks{TransactionID: &id, StoreID: &store, SessionPosID: &session}
}

func appendRevision(tx *gorm.DB, repo repository.RevisionRepository, entityType string, id uuid.UUID,
	typ model.RevisionType, state interface{}, links model.RevisionLinks, by string) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return repo.Append(tx, &model.Revision{
		EntityType:    entityType,
		EntityID:      id,
		Type:          typ,
		Snapshot:      datatypes.JSON(raw),
		RevisionLinks: links,
		CreatedBy:     by,
	})
}

var errProductDisabled = errors.New("product is disabled")
