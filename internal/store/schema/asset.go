package schema

import (
	"time"
)

// Asset represents the assets table - the canonical ownable record.
// The Owner column is the single source of truth for ownership; every
// mutating operation checks it under a row lock.
type Asset struct {
	// ID is the canonical asset identifier (ULID), assigned at creation and never reused
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Name is the owner-settable display name
	Name string `gorm:"column:name;not null;type:text"`
	// Description is the owner-settable display description
	Description string `gorm:"column:description;not null;type:text"`
	// Creator is the minting address, fixed permanently at creation
	Creator string `gorm:"column:creator;not null;type:text;index"`
	// Owner is the current holder's address
	Owner string `gorm:"column:owner;not null;type:text;index"`
	// Royalty is the creator's resale cut as an integer percentage in [0,100]
	Royalty int `gorm:"column:royalty;not null;default:0"`
	// Burned indicates whether the asset has been permanently destroyed.
	// The row is kept so the identifier stays retired.
	Burned bool `gorm:"column:burned;not null;default:false"`
	// CreatedAt is the timestamp when the asset was minted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last mutated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Listings []SaleListing `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
	Events   []AssetEvent  `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Asset model
func (Asset) TableName() string {
	return "assets"
}
