package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mintbay/registry/internal/domain"
	"github.com/mintbay/registry/internal/store/schema"
)

// AssetResponse represents an asset
type AssetResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Creator     string    `json:"creator"`
	Owner       string    `json:"owner"`
	Royalty     int       `json:"royalty"`
	Burned      bool      `json:"burned"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AssetListResponse represents a paginated list of assets
type AssetListResponse struct {
	Assets []AssetResponse `json:"items"`
	Offset *uint64         `json:"offset,omitempty"`
	Total  uint64          `json:"total"`
}

// ListingResponse represents a sale listing
type ListingResponse struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"asset_id"`
	Price     uint64    `json:"price"`
	Seller    string    `json:"seller"`
	CreatedAt time.Time `json:"created_at"`
}

// ListingListResponse represents a paginated list of sale listings
type ListingListResponse struct {
	Listings []ListingResponse `json:"items"`
	Offset   *uint64           `json:"offset,omitempty"`
	Total    uint64            `json:"total"`
}

// PurchaseResponse reports a settled purchase
type PurchaseResponse struct {
	Asset          AssetResponse `json:"asset"`
	RoyaltyPaid    uint64        `json:"royalty_paid"`
	SellerProceeds uint64        `json:"seller_proceeds"`
}

// AccountResponse represents a payment account
type AccountResponse struct {
	Address   string    `json:"address"`
	Balance   uint64    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventResponse represents an audit-log entry
type EventResponse struct {
	ID          uint64           `json:"id"`
	Type        domain.EventType `json:"type"`
	Event       *domain.Event    `json:"event"`
	EmittedAt   time.Time        `json:"emitted_at"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
}

// EventListResponse represents a paginated asset audit log
type EventListResponse struct {
	Events []EventResponse `json:"items"`
	Offset *uint64         `json:"offset,omitempty"`
	Total  uint64          `json:"total"`
}

// MapAssetToDTO maps a schema.Asset to AssetResponse
func MapAssetToDTO(asset *schema.Asset) AssetResponse {
	return AssetResponse{
		ID:          asset.ID,
		Name:        asset.Name,
		Description: asset.Description,
		Creator:     asset.Creator,
		Owner:       asset.Owner,
		Royalty:     asset.Royalty,
		Burned:      asset.Burned,
		CreatedAt:   asset.CreatedAt,
		UpdatedAt:   asset.UpdatedAt,
	}
}

// MapListingToDTO maps a schema.SaleListing to ListingResponse
func MapListingToDTO(listing *schema.SaleListing) ListingResponse {
	return ListingResponse{
		ID:        listing.ID,
		AssetID:   listing.AssetID,
		Price:     listing.Price,
		Seller:    listing.Seller,
		CreatedAt: listing.CreatedAt,
	}
}

// MapEventToDTO maps a schema.AssetEvent row to EventResponse, decoding the
// stored payload
func MapEventToDTO(row *schema.AssetEvent) (EventResponse, error) {
	var event domain.Event
	if err := json.Unmarshal(row.Payload, &event); err != nil {
		return EventResponse{}, fmt.Errorf("failed to unmarshal event payload: %w", err)
	}

	return EventResponse{
		ID:          row.ID,
		Type:        row.Type,
		Event:       &event,
		EmittedAt:   row.EmittedAt,
		PublishedAt: row.PublishedAt,
	}, nil
}

// MapAccountToDTO maps a schema.Account to AccountResponse
func MapAccountToDTO(account *schema.Account) AccountResponse {
	return AccountResponse{
		Address:   account.Address,
		Balance:   account.Balance,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}
