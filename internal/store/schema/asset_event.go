package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/mintbay/registry/internal/domain"
)

// AssetEvent represents the asset_events table - the append-only audit log.
// Rows are written in the same transaction as the mutation they record and
// never updated afterwards, except for the PublishedAt outbox marker set by
// the dispatcher once the event has been relayed to NATS.
type AssetEvent struct {
	// ID is the internal database primary key; ordering follows emission order
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// AssetID references the asset this event relates to
	AssetID string `gorm:"column:asset_id;not null;type:text;index"`
	// Type identifies the event variant (created, transferred, sold)
	Type domain.EventType `gorm:"column:type;not null;type:text"`
	// Payload contains the full event as JSON
	Payload datatypes.JSON `gorm:"column:payload;not null;type:jsonb"`
	// EmittedAt is the timestamp the triggering operation recorded
	EmittedAt time.Time `gorm:"column:emitted_at;not null;type:timestamptz"`
	// PublishedAt is set once the dispatcher has relayed the event; nil rows
	// form the outbox backlog
	PublishedAt *time.Time `gorm:"column:published_at;type:timestamptz;index"`
	// CreatedAt is the timestamp when this row was inserted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Asset Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the AssetEvent model
func (AssetEvent) TableName() string {
	return "asset_events"
}
