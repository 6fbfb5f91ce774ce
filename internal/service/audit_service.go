package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditService reads the revision history of audited entities.
type AuditService interface {
	ListRevisions(ctx context.Context, entityType string, id uuid.UUID) ([]model.Revision, error)
	GetAllAudits(ctx context.Context, entityType string, filter model.AuditFilter, page model.Page) (model.PageResult[model.AuditEntry], error)
}

type auditService struct {
	Deps
}

func NewAuditService(d Deps) AuditService {
	return &auditService{d.withDefaults()}
}

func ValidEntityType(entityType string) bool {
	switch entityType {
	case model.EntityTransaction, model.EntitySale, model.EntityPurchase:
		return true
	}
	return false
}

func (s *auditService) ListRevisions(ctx context.Context, entityType string, id uuid.UUID) ([]model.Revision, error) {
	const op = "ListRevisions"
	if !ValidEntityType(entityType) {
		return nil, invalid(op, "unknown entity type %q", entityType)
	}
	revs, err := s.Revisions.ListByEntity(ctx, entityType, id)
	if err != nil {
		return nil, storeErr(op, entityType, id, err)
	}
	if len(revs) == 0 {
		return nil, newErr(ErrNotFound, op, entityType, id, nil)
	}
	return revs, nil
}

func (s *auditService) GetAllAudits(ctx context.Context, entityType string, filter model.AuditFilter, page model.Page) (model.PageResult[model.AuditEntry], error) {
	const op = "GetAllAudits"
	if !ValidEntityType(entityType) {
		return model.PageResult[model.AuditEntry]{}, invalid(op, "unknown entity type %q", entityType)
	}
	page = page.Normalize()
	revs, total, err := s.Revisions.List(ctx, entityType, filter, page)
	if err != nil {
		return model.PageResult[model.AuditEntry]{}, storeErr(op, entityType, nil, err)
	}

	entries := make([]model.AuditEntry, 0, len(revs))
	for _, rev := range revs {
		entry := model.AuditEntry{
			RevisionID:    rev.ID,
			EntityType:    rev.EntityType,
			EntityID:      rev.EntityID,
			Number:        rev.Number,
			Type:          rev.Type,
			Snapshot:      rev.Snapshot,
			RevisionLinks: rev.RevisionLinks,
			CreatedBy:     rev.CreatedBy,
			CreatedAt:     rev.CreatedAt,
		}
		// Only the ADD revision of a sale or purchase carries the party. Later
		// transaction revisions take it from the linkage in effect at that point.
		if rev.EntityType == model.EntityTransaction && rev.TransactionID != nil &&
			entry.ProviderID == nil && entry.ClientID == nil {
			link, err := s.Revisions.LatestLinkRevision(ctx, *rev.TransactionID, rev.ID)
			switch {
			case err == nil:
				entry.ProviderID = link.ProviderID
				entry.ClientID = link.ClientID
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return model.PageResult[model.AuditEntry]{}, storeErr(op, entityType, rev.EntityID, err)
			}
		}
		entries = append(entries, entry)
	}
	return model.NewPageResult(entries, total, page), nil
}

// DecodeSnapshot unmarshals the state captured by a revision into dst.
func DecodeSnapshot(rev model.Revision, dst interface{}) error {
	if len(rev.Snapshot) == 0 {
		return newErr(ErrIntegrity, "DecodeSnapshot", rev.EntityType, rev.EntityID, errors.New("empty snapshot"))
	}
	if err := json.Unmarshal(rev.Snapshot, dst); err != nil {
		return newErr(ErrIntegrity, "DecodeSnapshot", rev.EntityType, rev.EntityID, err)
	}
	return nil
}

// Replay applies revisions 1..N in order and returns the reconstructed value.
// The numbers must form a gapless sequence starting at 1 that opens with ADD.
func Replay[T any](revs []model.Revision) (T, error) {
	var out T
	if len(revs) == 0 {
		return out, newErr(ErrNotFound, "Replay", "", nil, nil)
	}
	sorted := make([]model.Revision, len(revs))
	copy(sorted, revs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	for i, rev := range sorted {
		if rev.Number != i+1 {
			return out, newErr(ErrIntegrity, "Replay", rev.EntityType, rev.EntityID,
				fmt.Errorf("expected revision %d, found %d", i+1, rev.Number))
		}
		if i == 0 && rev.Type != model.RevisionAdd {
			return out, newErr(ErrIntegrity, "Replay", rev.EntityType, rev.EntityID,
				fmt.Errorf("history starts with %s", rev.Type))
		}
		var next T
		if err := DecodeSnapshot(rev, &next); err != nil {
			return out, err
		}
		out = next
	}
	return out, nil
}
