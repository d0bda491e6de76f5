package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mintbay/registry/internal/domain"
	"github.com/mintbay/registry/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. It accesses the underlying *sql.DB and sets the pool
// configuration. If any of the pool settings are 0 or empty, reasonable
// defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// appendEvent writes an audit-log row inside the caller's transaction. The
// row leaves PublishedAt nil, which is what the outbox dispatcher polls on.
func appendEvent(tx *gorm.DB, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	row := schema.AssetEvent{
		AssetID:   event.AssetID.String(),
		Type:      event.Type,
		Payload:   payload,
		EmittedAt: event.Timestamp,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create event row: %w", err)
	}

	return nil
}

// lockAsset loads a live asset under FOR UPDATE for the duration of the
// caller's transaction. Burned or missing rows map to domain.ErrAssetNotFound.
func lockAsset(tx *gorm.DB, id domain.AssetID) (*schema.Asset, error) {
	var asset schema.Asset
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id.String()).
		First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to lock asset: %w", err)
	}
	if asset.Burned {
		return nil, domain.ErrAssetNotFound
	}

	return &asset, nil
}

// creditAccount adds funds to an address, creating the account row on first
// credit. Runs inside the caller's transaction.
func creditAccount(tx *gorm.DB, address string, amount uint64, now time.Time) error {
	account := schema.Account{
		Address:   address,
		Balance:   amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("accounts.balance + EXCLUDED.balance"),
			"updated_at": now,
		}),
	}).Create(&account).Error; err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}

	return nil
}

func (s *pgStore) CreateAsset(ctx context.Context, input CreateAssetInput) (*schema.Asset, error) {
	var asset schema.Asset
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		asset = schema.Asset{
			ID:          input.ID.String(),
			Name:        input.Name,
			Description: input.Description,
			Creator:     input.Creator,
			Owner:       input.Creator,
			Royalty:     0,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&asset)
		if result.Error != nil {
			return fmt.Errorf("failed to create asset: %w", result.Error)
		}
		// A hit on the conflict target means the allocator handed out a
		// duplicate ID, which must never silently overwrite an asset
		if result.RowsAffected == 0 {
			return domain.ErrAssetAlreadyExists
		}

		return appendEvent(tx, domain.NewCreatedEvent(input.ID, input.Name, input.Creator, now))
	})
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

func (s *pgStore) GetAsset(ctx context.Context, id domain.AssetID) (*schema.Asset, error) {
	var asset schema.Asset
	err := s.db.WithContext(ctx).Where("id = ?", id.String()).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return &asset, nil
}

func (s *pgStore) GetAssets(ctx context.Context, filter AssetQueryFilter) ([]schema.Asset, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Asset{})

	if !filter.IncludeBurned {
		query = query.Where("burned = false")
	}
	if len(filter.Owners) > 0 {
		query = query.Where("owner IN ?", filter.Owners)
	}
	if len(filter.Creators) > 0 {
		query = query.Where("creator IN ?", filter.Creators)
	}

	// Count total
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assets: %w", err)
	}

	// Apply pagination; ULIDs sort lexicographically in creation order
	query = query.Order("id ASC").Limit(filter.Limit).Offset(int(filter.Offset)) //nolint:gosec,G115

	var assets []schema.Asset
	if err := query.Find(&assets).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get assets: %w", err)
	}

	return assets, uint64(total), nil //nolint:gosec,G115
}

func (s *pgStore) TransferAsset(ctx context.Context, input TransferAssetInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := lockAsset(tx, input.AssetID)
		if err != nil {
			return err
		}
		if asset.Owner != input.Caller {
			return domain.ErrNotOwner
		}

		now := time.Now().UTC()
		from := asset.Owner

		// Set the owner to the recipient explicitly; the previous owner is
		// only trusted as the event's from-address
		asset.Owner = input.Recipient
		asset.UpdatedAt = now
		if err := tx.Save(asset).Error; err != nil {
			return fmt.Errorf("failed to update asset owner: %w", err)
		}

		return appendEvent(tx, domain.NewTransferredEvent(input.AssetID, from, input.Recipient, now))
	})
}

func (s *pgStore) BurnAsset(ctx context.Context, id domain.AssetID, caller string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := lockAsset(tx, id)
		if err != nil {
			return err
		}
		if asset.Owner != caller {
			return domain.ErrNotOwner
		}

		// The row stays so the identifier remains retired forever
		asset.Burned = true
		asset.UpdatedAt = time.Now().UTC()
		if err := tx.Save(asset).Error; err != nil {
			return fmt.Errorf("failed to burn asset: %w", err)
		}

		// Open listings for a burned asset can never settle; drop them now
		if err := tx.Where("asset_id = ?", id.String()).
			Delete(&schema.SaleListing{}).Error; err != nil {
			return fmt.Errorf("failed to delete listings of burned asset: %w", err)
		}

		return nil
	})
}

func (s *pgStore) UpdateAssetMetadata(ctx context.Context, input UpdateMetadataInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := lockAsset(tx, input.AssetID)
		if err != nil {
			return err
		}
		if asset.Owner != input.Caller {
			return domain.ErrNotOwner
		}

		asset.Name = input.Name
		asset.Description = input.Description
		asset.UpdatedAt = time.Now().UTC()
		if err := tx.Save(asset).Error; err != nil {
			return fmt.Errorf("failed to update asset metadata: %w", err)
		}

		return nil
	})
}

func (s *pgStore) SetAssetRoyalty(ctx context.Context, id domain.AssetID, rate int, caller string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := lockAsset(tx, id)
		if err != nil {
			return err
		}
		// Ownership is checked before the range so an unauthorized caller
		// learns nothing about the proposed value
		if asset.Owner != caller {
			return domain.ErrNotOwner
		}
		if !domain.ValidRoyaltyRate(rate) {
			return domain.ErrInvalidRoyalty
		}

		asset.Royalty = rate
		asset.UpdatedAt = time.Now().UTC()
		if err := tx.Save(asset).Error; err != nil {
			return fmt.Errorf("failed to update asset royalty: %w", err)
		}

		return nil
	})
}

func (s *pgStore) CreateListing(ctx context.Context, input CreateListingInput) (*schema.SaleListing, error) {
	var listing schema.SaleListing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := lockAsset(tx, input.AssetID)
		if err != nil {
			return err
		}
		if asset.Owner != input.Caller {
			return domain.ErrNotOwner
		}

		listing = schema.SaleListing{
			ID:        input.ID.String(),
			AssetID:   input.AssetID.String(),
			Price:     input.Price,
			Seller:    input.Caller,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&listing).Error; err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &listing, nil
}

func (s *pgStore) GetListing(ctx context.Context, id domain.ListingID) (*schema.SaleListing, error) {
	var listing schema.SaleListing
	err := s.db.WithContext(ctx).Where("id = ?", id.String()).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return &listing, nil
}

func (s *pgStore) GetListings(ctx context.Context, filter ListingQueryFilter) ([]schema.SaleListing, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.SaleListing{})

	if len(filter.AssetIDs) > 0 {
		query = query.Where("asset_id IN ?", filter.AssetIDs)
	}
	if len(filter.Sellers) > 0 {
		query = query.Where("seller IN ?", filter.Sellers)
	}

	// Count total
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	// Apply pagination
	query = query.Order("created_at ASC, id ASC").Limit(filter.Limit).Offset(int(filter.Offset)) //nolint:gosec,G115

	var listings []schema.SaleListing
	if err := query.Find(&listings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get listings: %w", err)
	}

	return listings, uint64(total), nil //nolint:gosec,G115
}

func (s *pgStore) CancelListing(ctx context.Context, id domain.ListingID, caller string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing schema.SaleListing
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id.String()).
			First(&listing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrListingNotFound
			}
			return fmt.Errorf("failed to lock listing: %w", err)
		}
		if listing.Seller != caller {
			return domain.ErrNotOwner
		}

		if err := tx.Delete(&listing).Error; err != nil {
			return fmt.Errorf("failed to delete listing: %w", err)
		}

		return nil
	})
}

func (s *pgStore) PurchaseListing(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	var result PurchaseResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the listing
		var listing schema.SaleListing
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", input.ListingID.String()).
			First(&listing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrListingNotFound
			}
			return fmt.Errorf("failed to lock listing: %w", err)
		}

		// 2. Lock the asset and verify the listing is still live. A burned
		// asset or an owner change since listing time makes it stale.
		var asset schema.Asset
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", listing.AssetID).
			First(&asset).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotForSale
			}
			return fmt.Errorf("failed to lock asset: %w", err)
		}
		if asset.Burned || asset.Owner != listing.Seller {
			return domain.ErrNotForSale
		}

		// 3. Payment must equal the price exactly
		if input.Payment != listing.Price {
			return domain.ErrInvalidPayment
		}

		// 4. Split the payment
		royalty := domain.RoyaltyAmount(listing.Price, asset.Royalty)
		proceeds := listing.Price - royalty

		now := time.Now().UTC()

		// 5. Debit the buyer; the balance guard in the WHERE clause makes
		// the debit conditional so two concurrent purchases cannot both
		// spend the same funds
		if listing.Price > 0 {
			debit := tx.Model(&schema.Account{}).
				Where("address = ? AND balance >= ?", input.Buyer, listing.Price).
				Updates(map[string]interface{}{
					"balance":    gorm.Expr("balance - ?", listing.Price),
					"updated_at": now,
				})
			if debit.Error != nil {
				return fmt.Errorf("failed to debit buyer: %w", debit.Error)
			}
			if debit.RowsAffected == 0 {
				return domain.ErrInsufficientFunds
			}
		}

		// 6. Credit the creator's royalty and the seller's remainder
		if royalty > 0 {
			if err := creditAccount(tx, asset.Creator, royalty, now); err != nil {
				return err
			}
		}
		if proceeds > 0 {
			if err := creditAccount(tx, listing.Seller, proceeds, now); err != nil {
				return err
			}
		}

		// 7. Record the sale before the ownership change applies
		assetID := domain.AssetID(asset.ID)
		if err := appendEvent(tx, domain.NewSoldEvent(assetID, listing.Seller, input.Buyer, listing.Price, now)); err != nil {
			return err
		}

		// 8. Hand the asset to the buyer
		asset.Owner = input.Buyer
		asset.UpdatedAt = now
		if err := tx.Save(&asset).Error; err != nil {
			return fmt.Errorf("failed to update asset owner: %w", err)
		}

		// 9. Retire the listing
		if err := tx.Delete(&listing).Error; err != nil {
			return fmt.Errorf("failed to delete listing: %w", err)
		}

		result = PurchaseResult{
			Asset:          &asset,
			RoyaltyPaid:    royalty,
			SellerProceeds: proceeds,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *pgStore) GetAccount(ctx context.Context, address string) (*schema.Account, error) {
	var account schema.Account
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

func (s *pgStore) Deposit(ctx context.Context, address string, amount uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return creditAccount(tx, address, amount, time.Now().UTC())
	})
}

func (s *pgStore) GetAssetEvents(ctx context.Context, id domain.AssetID, limit int, offset uint64) ([]schema.AssetEvent, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.AssetEvent{}).
		Where("asset_id = ?", id.String())

	// Count total
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	// Apply pagination; the autoincrement ID preserves emission order
	query = query.Order("id ASC").Limit(limit).Offset(int(offset)) //nolint:gosec,G115

	var events []schema.AssetEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get events: %w", err)
	}

	return events, uint64(total), nil //nolint:gosec,G115
}

func (s *pgStore) GetUnpublishedEvents(ctx context.Context, limit int) ([]schema.AssetEvent, error) {
	var events []schema.AssetEvent
	err := s.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get unpublished events: %w", err)
	}

	return events, nil
}

func (s *pgStore) MarkEventPublished(ctx context.Context, eventID uint64) error {
	result := s.db.WithContext(ctx).Model(&schema.AssetEvent{}).
		Where("id = ?", eventID).
		Update("published_at", time.Now().UTC())
	if result.Error != nil {
		return fmt.Errorf("failed to mark event published: %w", result.Error)
	}

	return nil
}
