package repository

import (
	"context"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RevisionRepository is the append-only audit store.
type RevisionRepository interface {
	// Append assigns the next per-entity number and inserts the revision.
	Append(tx *gorm.DB, rev *model.Revision) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.Revision, error)
	List(ctx context.Context, entityType string, filter model.AuditFilter, page model.Page) ([]model.Revision, int64, error)

	// LatestLinkRevision returns the newest sale or purchase revision for a transaction
	// whose global id is not greater than maxID.
	LatestLinkRevision(ctx context.Context, transactionID uuid.UUID, maxID uint) (*model.Revision, error)
}

type revisionRepo struct {
	db *gorm.DB
}

func NewRevisionRepo(db *gorm.DB) RevisionRepository {
	return &revisionRepo{db}
}

func (r *revisionRepo) Append(tx *gorm.DB, rev *model.Revision) error {
	var last int
	err := tx.Model(&model.Revision{}).
		Where("entity_type = ? AND entity_id = ?", rev.EntityType, rev.EntityID).
		Select("COALESCE(MAX(number), 0)").
		Row().Scan(&last)
	if err != nil {
		return err
	}
	rev.ID = 0
	rev.Number = last + 1
	return tx.Create(rev).Error
}

func (r *revisionRepo) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.Revision, error) {
	var revs []model.Revision
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("number ASC").
		Find(&revs).Error
	return revs, err
}

func (r *revisionRepo) List(ctx context.Context, entityType string, filter model.AuditFilter, page model.Page) ([]model.Revision, int64, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&model.Revision{}).Where("entity_type = ?", entityType)
	if filter.EntityID != nil {
		q = q.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.TransactionID != nil {
		q = q.Where("transaction_id = ?", *filter.TransactionID)
	}
	if filter.StoreID != nil {
		q = q.Where("store_id = ?", *filter.StoreID)
	}
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var revs []model.Revision
	err := q.Order("id ASC").Limit(page.Size).Offset(page.Offset()).Find(&revs).Error
	return revs, total, err
}

func (r *revisionRepo) LatestLinkRevision(ctx context.Context, transactionID uuid.UUID, maxID uint) (*model.Revision, error) {
	var rev model.Revision
	err := r.db.WithContext(ctx).
		Where("transaction_id = ? AND entity_type IN ? AND id <= ?",
			transactionID, []string{model.EntitySale, model.EntityPurchase}, maxID).
		Order("id DESC").
		First(&rev).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
