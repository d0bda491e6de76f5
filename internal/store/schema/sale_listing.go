package schema

import (
	"time"
)

// SaleListing represents the sale_listings table - a standalone offer to sell
// an asset at a fixed price. A listing does not lock or escrow the asset; the
// asset's Owner column stays authoritative, and a purchase only settles when
// the owner still equals the recorded seller.
type SaleListing struct {
	// ID is the listing identifier (UUIDv4), a separate namespace from asset IDs
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// AssetID references the asset being offered (non-owning back-reference)
	AssetID string `gorm:"column:asset_id;not null;type:text;index"`
	// Price is the exact amount required to purchase
	Price uint64 `gorm:"column:price;not null;type:bigint"`
	// Seller is the asset owner's address captured at listing time
	Seller string `gorm:"column:seller;not null;type:text;index"`
	// CreatedAt is the timestamp when the listing was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Asset Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the SaleListing model
func (SaleListing) TableName() string {
	return "sale_listings"
}
