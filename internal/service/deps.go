package service

import (
	"fmt"
	"log/slog"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deps bundles what the services share. Nil Notifier, Events and Logger get no-op defaults.
type Deps struct {
	Runner            *TxRunner
	Catalog           repository.CatalogRepository
	Stocks            repository.StockRepository
	Transactions      repository.TransactionRepository
	Settlements       repository.SettlementRepository
	Sessions          repository.SessionRepository
	Revisions         repository.RevisionRepository
	Notifier          Notifier
	Events            EventPublisher
	Logger            *slog.Logger
	LowStockThreshold decimal.Decimal
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Notifier == nil {
		d.Notifier = LogNotifier{Logger: d.Logger}
	}
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	return d
}

func (d Deps) sink() alertSink {
	return alertSink{notifier: d.Notifier, events: d.Events, logger: d.Logger}
}

// validate runs struct tags and reports the first failing field.
func validate(op string, req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return invalid(op, "field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}
	return nil
}

// checkScale rejects values with more fractional digits than the column keeps.
func checkScale(op, field string, v decimal.Decimal, scale int32) error {
	if !v.Equal(v.Round(scale)) {
		return invalid(op, "%s %s has more than %d decimal places", field, v, scale)
	}
	return nil
}

type stockKey struct {
	productID uuid.UUID
	storeID   uuid.UUID
}

func (k stockKey) String() string {
	return fmt.Sprintf("product=%s store=%s", k.productID, k.storeID)
}

func validPaymentMethod(m model.PaymentMethod) bool {
	switch m {
	case model.PaymentCredit, model.PaymentDebit, model.PaymentCash, model.PaymentDigital:
		return true
	}
	return false
}
