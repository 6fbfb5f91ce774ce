package repository

import (
	"context"
	"time"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(tx *gorm.DB, session *model.SessionPos) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SessionPos, error)
	FindTx(tx *gorm.DB, id uuid.UUID, lock string) (*model.SessionPos, error)
	FindOpenByPos(ctx context.Context, posID uuid.UUID) (*model.SessionPos, error)
	FindOpenByPosTx(tx *gorm.DB, posID uuid.UUID) (*model.SessionPos, error)
	ListByPos(ctx context.Context, posID uuid.UUID, page model.Page) ([]model.SessionPos, int64, error)

	// Close sets the closing columns only while close_time IS NULL.
	Close(tx *gorm.DB, id uuid.UUID, at time.Time, closeAmount, expected, difference decimal.Decimal, updatedBy string) (int64, error)

	// POS runtime fields are owned by the session manager.
	FindPos(ctx context.Context, id uuid.UUID) (*model.Pos, error)
	FindPosTx(tx *gorm.DB, id uuid.UUID, lock string) (*model.Pos, error)
	UpdatePos(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	AdjustPosCash(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db}
}

func (r *sessionRepo) Create(tx *gorm.DB, session *model.SessionPos) error {
	return tx.Create(session).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SessionPos, error) {
	return r.FindTx(r.db.WithContext(ctx), id, LockNone)
}

func (r *sessionRepo) FindTx(tx *gorm.DB, id uuid.UUID, lock string) (*model.SessionPos, error) {
	var session model.SessionPos
	if err := withLock(tx, lock).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) FindOpenByPos(ctx context.Context, posID uuid.UUID) (*model.SessionPos, error) {
	return r.FindOpenByPosTx(r.db.WithContext(ctx), posID)
}

func (r *sessionRepo) FindOpenByPosTx(tx *gorm.DB, posID uuid.UUID) (*model.SessionPos, error) {
	var session model.SessionPos
	if err := tx.Where("pos_id = ? AND close_time IS NULL", posID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListByPos(ctx context.Context, posID uuid.UUID, page model.Page) ([]model.SessionPos, int64, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&model.SessionPos{}).Where("pos_id = ?", posID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var sessions []model.SessionPos
	err := q.Order("opening_time DESC").Limit(page.Size).Offset(page.Offset()).Find(&sessions).Error
	return sessions, total, err
}

func (r *sessionRepo) Close(tx *gorm.DB, id uuid.UUID, at time.Time, closeAmount, expected, difference decimal.Decimal, updatedBy string) (int64, error) {
	res := tx.Model(&model.SessionPos{}).
		Where("id = ? AND close_time IS NULL", id).
		Updates(map[string]interface{}{
			"close_time":      at,
			"close_amount":    closeAmount,
			"expected_amount": expected,
			"cash_difference": difference,
			"updated_by":      updatedBy,
		})
	return res.RowsAffected, res.Error
}

func (r *sessionRepo) FindPos(ctx context.Context, id uuid.UUID) (*model.Pos, error) {
	return r.FindPosTx(r.db.WithContext(ctx), id, LockNone)
}

func (r *sessionRepo) FindPosTx(tx *gorm.DB, id uuid.UUID, lock string) (*model.Pos, error) {
	var pos model.Pos
	if err := withLock(tx, lock).First(&pos, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pos, nil
}

func (r *sessionRepo) UpdatePos(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return tx.Model(&model.Pos{}).Where("id = ?", id).Updates(fields).Error
}

func (r *sessionRepo) AdjustPosCash(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&model.Pos{}).Where("id = ?", id).
		Update("cash_amount", gorm.Expr("cash_amount + ?", delta)).Error
}
