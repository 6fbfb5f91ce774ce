package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SessionService opens and closes POS sessions and reconciles their cash.
type SessionService interface {
	Open(ctx context.Context, req OpenSessionRequest) (*model.SessionPos, error)
	Close(ctx context.Context, req CloseSessionRequest) (*model.SessionPos, error)
	Get(ctx context.Context, id uuid.UUID) (*model.SessionPos, error)
	Current(ctx context.Context, posID uuid.UUID) (*model.SessionPos, error)
	ListByPos(ctx context.Context, posID uuid.UUID, page model.Page) (model.PageResult[model.SessionPos], error)
	Summary(ctx context.Context, id uuid.UUID) (*model.SessionSummary, error)

	// RequireOpenTx share-locks the session so a concurrent close waits for the
	// caller's transaction. posID is optional.
	RequireOpenTx(tx *gorm.DB, sessionID, storeID uuid.UUID, posID *uuid.UUID) (*model.SessionPos, error)
	MoveCashTx(tx *gorm.DB, posID uuid.UUID, delta decimal.Decimal) error
}

type OpenSessionRequest struct {
	PosID         uuid.UUID       `json:"pos_id" validate:"uuid_required"`
	EmployeeID    uuid.UUID       `json:"employee_id" validate:"uuid_required"`
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"gte=0"`
	By            string          `json:"-"`
}

type CloseSessionRequest struct {
	SessionID   uuid.UUID       `json:"session_id" validate:"uuid_required"`
	CloseAmount decimal.Decimal `json:"close_amount" validate:"gte=0"`
	By          string          `json:"-"`
}

var errSessionOpen = errors.New("pos already has an open session")

type sessionService struct {
	Deps
}

func NewSessionService(d Deps) SessionService {
	return &sessionService{d.withDefaults()}
}

func (s *sessionService) Open(ctx context.Context, req OpenSessionRequest) (*model.SessionPos, error) {
	const op = "OpenSession"
	if err := validate(op, req); err != nil {
		return nil, err
	}
	if err := checkScale(op, "opening_amount", req.OpeningAmount, model.MoneyScale); err != nil {
		return nil, err
	}

	var session *model.SessionPos
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		// Lock the POS row so two openers serialize here.
		if _, err := s.Sessions.FindPosTx(tx, req.PosID, repository.LockUpdate); err != nil {
			return storeErr(op, "pos", req.PosID, err)
		}
		existing, err := s.Sessions.FindOpenByPosTx(tx, req.PosID)
		if err == nil {
			return newErr(ErrConflict, op, "pos", req.PosID, fmt.Errorf("%w: %s", errSessionOpen, existing.ID))
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storeErr(op, "session", nil, err)
		}

		session = &model.SessionPos{
			BaseModel:     model.BaseModel{CreatedBy: req.By, UpdatedBy: req.By},
			PosID:         req.PosID,
			EmployeeID:    req.EmployeeID,
			OpeningTime:   time.Now().UTC(),
			OpeningAmount: req.OpeningAmount,
		}
		if err := s.Sessions.Create(tx, session); err != nil {
			return storeErr(op, "pos", req.PosID, err)
		}
		return storeErr(op, "pos", req.PosID, s.Sessions.UpdatePos(tx, req.PosID, map[string]interface{}{
			"status":      model.PosOnline,
			"employee_id": req.EmployeeID,
			"cash_amount": req.OpeningAmount,
			"updated_by":  req.By,
		}))
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("session opened",
		"session_id", session.ID,
		"pos_id", session.PosID,
		"employee_id", session.EmployeeID,
		"opening_amount", session.OpeningAmount.String(),
	)
	s.sink().publish(EventSessionOpened, session)
	return session, nil
}

func (s *sessionService) Close(ctx context.Context, req CloseSessionRequest) (*model.SessionPos, error) {
	const op = "CloseSession"
	if err := validate(op, req); err != nil {
		return nil, err
	}
	if err := checkScale(op, "close_amount", req.CloseAmount, model.MoneyScale); err != nil {
		return nil, err
	}

	var session *model.SessionPos
	err := s.Runner.Run(ctx, op, func(tx *gorm.DB) error {
		current, err := s.Sessions.FindTx(tx, req.SessionID, repository.LockUpdate)
		if err != nil {
			return storeErr(op, "session", req.SessionID, err)
		}
		if !current.IsOpen() {
			return newErr(ErrAlreadyClosed, op, "session", req.SessionID, nil)
		}

		sum, err := s.Transactions.GetCashSummary(tx, current.ID)
		if err != nil {
			return storeErr(op, "session", current.ID, err)
		}
		expected := expectedCash(current.OpeningAmount, sum)
		difference := req.CloseAmount.Sub(expected).Round(model.MoneyScale)
		closedAt := time.Now().UTC()

		n, err := s.Sessions.Close(tx, current.ID, closedAt, req.CloseAmount, expected, difference, req.By)
		if err != nil {
			return storeErr(op, "session", current.ID, err)
		}
		if n == 0 {
			return newErr(ErrAlreadyClosed, op, "session", current.ID, nil)
		}
		if err := s.Sessions.UpdatePos(tx, current.PosID, map[string]interface{}{
			"status":      model.PosOffline,
			"employee_id": nil,
			"cash_amount": req.CloseAmount,
			"updated_by":  req.By,
		}); err != nil {
			return storeErr(op, "pos", current.PosID, err)
		}

		current.CloseTime = &closedAt
		current.CloseAmount = decimal.NewNullDecimal(req.CloseAmount)
		current.ExpectedAmount = decimal.NewNullDecimal(expected)
		current.CashDifference = decimal.NewNullDecimal(difference)
		session = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("session closed",
		"session_id", session.ID,
		"pos_id", session.PosID,
		"expected_amount", session.ExpectedAmount.Decimal.String(),
		"close_amount", session.CloseAmount.Decimal.String(),
		"cash_difference", session.CashDifference.Decimal.String(),
	)
	s.sink().publish(EventSessionClosed, session)
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (*model.SessionPos, error) {
	session, err := s.Sessions.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("GetSession", "session", id, err)
	}
	return session, nil
}

func (s *sessionService) Current(ctx context.Context, posID uuid.UUID) (*model.SessionPos, error) {
	session, err := s.Sessions.FindOpenByPos(ctx, posID)
	if err != nil {
		return nil, storeErr("CurrentSession", "pos", posID, err)
	}
	return session, nil
}

func (s *sessionService) ListByPos(ctx context.Context, posID uuid.UUID, page model.Page) (model.PageResult[model.SessionPos], error) {
	page = page.Normalize()
	sessions, total, err := s.Sessions.ListByPos(ctx, posID, page)
	if err != nil {
		return model.PageResult[model.SessionPos]{}, storeErr("ListSessions", "pos", posID, err)
	}
	return model.NewPageResult(sessions, total, page), nil
}

// Summary reports the running cash position. For a closed session it matches the stored close figures.
func (s *sessionService) Summary(ctx context.Context, id uuid.UUID) (*model.SessionSummary, error) {
	const op = "SessionSummary"
	session, err := s.Sessions.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(op, "session", id, err)
	}
	sum, err := s.Transactions.GetCashSummary(s.Runner.DB(ctx), id)
	if err != nil {
		return nil, storeErr(op, "session", id, err)
	}
	return &model.SessionSummary{
		SessionID:      session.ID,
		PosID:          session.PosID,
		Open:           session.IsOpen(),
		OpeningAmount:  session.OpeningAmount,
		CashSales:      sum.CashSales,
		CashPurchases:  sum.CashPurchases,
		ExpectedAmount: expectedCash(session.OpeningAmount, sum),
		CloseAmount:    session.CloseAmount,
		CashDifference: session.CashDifference,
		Transactions:   sum.Count,
	}, nil
}

func (s *sessionService) RequireOpenTx(tx *gorm.DB, sessionID, storeID uuid.UUID, posID *uuid.UUID) (*model.SessionPos, error) {
	const op = "RequireOpenSession"
	session, err := s.Sessions.FindTx(tx, sessionID, repository.LockShare)
	if err != nil {
		return nil, storeErr(op, "session", sessionID, err)
	}
	if !session.IsOpen() {
		return nil, newErr(ErrSessionClosed, op, "session", sessionID, nil)
	}
	if posID != nil && *posID != session.PosID {
		return nil, newErr(ErrInvalidInput, op, "session", sessionID, errors.New("session belongs to another pos"))
	}
	pos, err := s.Sessions.FindPosTx(tx, session.PosID, repository.LockNone)
	if err != nil {
		return nil, storeErr(op, "pos", session.PosID, err)
	}
	if pos.StoreID != storeID {
		return nil, newErr(ErrInvalidInput, op, "session", sessionID, errors.New("session belongs to another store"))
	}
	return session, nil
}

func (s *sessionService) MoveCashTx(tx *gorm.DB, posID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return storeErr("MoveCash", "pos", posID, s.Sessions.AdjustPosCash(tx, posID, delta))
}

// expectedCash = opening + cash sales - cash purchases
func expectedCash(opening decimal.Decimal, sum *repository.CashSummary) decimal.Decimal {
	return opening.Add(sum.CashSales).Sub(sum.CashPurchases).Round(model.MoneyScale)
}
