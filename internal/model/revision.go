package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RevisionType string

const (
	RevisionAdd RevisionType = "ADD"
	RevisionMod RevisionType = "MOD"
	RevisionDel RevisionType = "DEL"
)

// Audited entity types.
const (
	EntityTransaction = "transaction"
	EntitySale        = "sale"
	EntityPurchase    = "purchase"
)

// RevisionLinks are the relationship ids captured at write time.
type RevisionLinks struct {
	TransactionID *uuid.UUID `gorm:"type:uuid;index" json:"transaction_id,omitempty"`
	StoreID       *uuid.UUID `gorm:"type:uuid" json:"store_id,omitempty"`
	SessionPosID  *uuid.UUID `gorm:"type:uuid" json:"session_pos_id,omitempty"`
	ProviderID    *uuid.UUID `gorm:"type:uuid" json:"provider_id,omitempty"`
	ClientID      *uuid.UUID `gorm:"type:uuid" json:"client_id,omitempty"`
}

// Revision is an append-only history record. ID is a global sequence; Number counts per entity.
type Revision struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType string         `gorm:"type:varchar(32);not null;uniqueIndex:idx_revision_entity_number,priority:1" json:"entity_type"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_revision_entity_number,priority:2" json:"entity_id"`
	Number     int            `gorm:"not null;uniqueIndex:idx_revision_entity_number,priority:3" json:"number"`
	Type       RevisionType   `gorm:"type:varchar(3);not null" json:"type"`
	Snapshot   datatypes.JSON `json:"snapshot"`
	RevisionLinks
	CreatedBy string    `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// AuditEntry is a revision flattened with the linkage ids in effect at that revision.
type AuditEntry struct {
	RevisionID uint           `json:"revision_id"`
	EntityType string         `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	Number     int            `json:"number"`
	Type       RevisionType   `json:"type"`
	Snapshot   datatypes.JSON `json:"snapshot"`
	RevisionLinks
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditFilter narrows GetAllAudits.
type AuditFilter struct {
	EntityID      *uuid.UUID
	TransactionID *uuid.UUID
	StoreID       *uuid.UUID
	Type          *RevisionType
	From          *time.Time
	To            *time.Time
}
