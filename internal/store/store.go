package store

import (
	"context"

	"github.com/mintbay/registry/internal/domain"
	"github.com/mintbay/registry/internal/store/schema"
)

// CreateAssetInput holds the fields for minting a new asset
type CreateAssetInput struct {
	ID          domain.AssetID
	Name        string
	Description string
	Creator     string
}

// TransferAssetInput holds the fields for transferring an asset
type TransferAssetInput struct {
	AssetID   domain.AssetID
	Caller    string
	Recipient string
}

// UpdateMetadataInput holds the fields for replacing an asset's display strings
type UpdateMetadataInput struct {
	AssetID     domain.AssetID
	Caller      string
	Name        string
	Description string
}

// CreateListingInput holds the fields for putting an asset up for sale
type CreateListingInput struct {
	ID      domain.ListingID
	AssetID domain.AssetID
	Price   uint64
	Caller  string
}

// PurchaseInput holds the fields for settling a sale listing
type PurchaseInput struct {
	ListingID domain.ListingID
	Buyer     string
	Payment   uint64
}

// PurchaseResult reports how a settled purchase was split
type PurchaseResult struct {
	Asset          *schema.Asset
	RoyaltyPaid    uint64
	SellerProceeds uint64
}

// AssetQueryFilter holds filters for listing assets
type AssetQueryFilter struct {
	Owners        []string
	Creators      []string
	IncludeBurned bool
	Limit         int
	Offset        uint64
}

// ListingQueryFilter holds filters for listing sale listings
type ListingQueryFilter struct {
	AssetIDs []string
	Sellers  []string
	Limit    int
	Offset   uint64
}

// Store defines the interface for registry database operations. Every
// mutating method runs as a single transaction: the ownership check, the
// state change, and the emitted event commit together or not at all.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// CreateAsset mints a new asset owned by its creator and records the
	// Created event
	CreateAsset(ctx context.Context, input CreateAssetInput) (*schema.Asset, error)
	// GetAsset retrieves an asset by ID, including burned ones; returns
	// (nil, nil) when the ID was never allocated
	GetAsset(ctx context.Context, id domain.AssetID) (*schema.Asset, error)
	// GetAssets retrieves assets matching the filter along with the total count
	GetAssets(ctx context.Context, filter AssetQueryFilter) ([]schema.Asset, uint64, error)
	// TransferAsset moves an asset to a new owner and records the
	// Transferred event; fails with domain.ErrNotOwner unless the caller is
	// the current owner
	TransferAsset(ctx context.Context, input TransferAssetInput) error
	// BurnAsset permanently destroys an asset; its identifier stays retired
	BurnAsset(ctx context.Context, id domain.AssetID, caller string) error
	// UpdateAssetMetadata replaces an asset's name and description in place
	UpdateAssetMetadata(ctx context.Context, input UpdateMetadataInput) error
	// SetAssetRoyalty replaces an asset's royalty rate; fails with
	// domain.ErrInvalidRoyalty when the rate is outside [0,100]
	SetAssetRoyalty(ctx context.Context, id domain.AssetID, rate int, caller string) error

	// CreateListing puts an asset up for sale at a fixed price
	CreateListing(ctx context.Context, input CreateListingInput) (*schema.SaleListing, error)
	// GetListing retrieves a sale listing by ID; returns (nil, nil) when missing
	GetListing(ctx context.Context, id domain.ListingID) (*schema.SaleListing, error)
	// GetListings retrieves sale listings matching the filter along with the total count
	GetListings(ctx context.Context, filter ListingQueryFilter) ([]schema.SaleListing, uint64, error)
	// CancelListing withdraws an active listing; only the recorded seller may cancel
	CancelListing(ctx context.Context, id domain.ListingID, caller string) error
	// PurchaseListing settles a sale atomically: payment split, ownership
	// transfer, Sold event, and listing retirement commit as one unit
	PurchaseListing(ctx context.Context, input PurchaseInput) (*PurchaseResult, error)

	// GetAccount retrieves an address's payment account; returns (nil, nil)
	// when the address has never been credited
	GetAccount(ctx context.Context, address string) (*schema.Account, error)
	// Deposit credits an address's payment account
	Deposit(ctx context.Context, address string, amount uint64) error

	// GetAssetEvents retrieves an asset's audit log in emission order
	GetAssetEvents(ctx context.Context, id domain.AssetID, limit int, offset uint64) ([]schema.AssetEvent, uint64, error)
	// GetUnpublishedEvents retrieves outbox events not yet relayed to the broker
	GetUnpublishedEvents(ctx context.Context, limit int) ([]schema.AssetEvent, error)
	// MarkEventPublished records that an outbox event has been relayed
	MarkEventPublished(ctx context.Context, eventID uint64) error
}
