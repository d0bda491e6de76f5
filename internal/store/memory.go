package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mintbay/registry/internal/domain"
	"github.com/mintbay/registry/internal/store/schema"
)

// memoryStore is an in-memory Store used by tests and local development.
// A single mutex stands in for the row locks the PostgreSQL store takes, so
// every operation keeps the same all-or-nothing semantics.
type memoryStore struct {
	mu          sync.RWMutex
	assets      map[string]*schema.Asset
	listings    map[string]*schema.SaleListing
	accounts    map[string]*schema.Account
	events      []*schema.AssetEvent
	nextEventID uint64
}

// NewMemoryStore creates an in-memory store instance
func NewMemoryStore() Store {
	return &memoryStore{
		assets:      make(map[string]*schema.Asset),
		listings:    make(map[string]*schema.SaleListing),
		accounts:    make(map[string]*schema.Account),
		nextEventID: 1,
	}
}

// appendEvent records an audit-log row; caller holds the write lock
func (s *memoryStore) appendEvent(event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	s.events = append(s.events, &schema.AssetEvent{
		ID:        s.nextEventID,
		AssetID:   event.AssetID.String(),
		Type:      event.Type,
		Payload:   payload,
		EmittedAt: event.Timestamp,
		CreatedAt: event.Timestamp,
	})
	s.nextEventID++

	return nil
}

// liveAsset returns a live asset; caller holds the lock
func (s *memoryStore) liveAsset(id domain.AssetID) (*schema.Asset, error) {
	asset, exists := s.assets[id.String()]
	if !exists || asset.Burned {
		return nil, domain.ErrAssetNotFound
	}
	return asset, nil
}

// creditAccount adds funds to an address; caller holds the write lock
func (s *memoryStore) creditAccount(address string, amount uint64, now time.Time) {
	account, exists := s.accounts[address]
	if !exists {
		account = &schema.Account{
			Address:   address,
			CreatedAt: now,
		}
		s.accounts[address] = account
	}
	account.Balance += amount
	account.UpdatedAt = now
}

func (s *memoryStore) CreateAsset(_ context.Context, input CreateAssetInput) (*schema.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.assets[input.ID.String()]; exists {
		return nil, domain.ErrAssetAlreadyExists
	}

	now := time.Now().UTC()
	asset := &schema.Asset{
		ID:          input.ID.String(),
		Name:        input.Name,
		Description: input.Description,
		Creator:     input.Creator,
		Owner:       input.Creator,
		Royalty:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.assets[asset.ID] = asset

	if err := s.appendEvent(domain.NewCreatedEvent(input.ID, input.Name, input.Creator, now)); err != nil {
		delete(s.assets, asset.ID)
		return nil, err
	}

	copied := *asset
	return &copied, nil
}

func (s *memoryStore) GetAsset(_ context.Context, id domain.AssetID) (*schema.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, exists := s.assets[id.String()]
	if !exists {
		return nil, nil
	}

	copied := *asset
	return &copied, nil
}

func (s *memoryStore) GetAssets(_ context.Context, filter AssetQueryFilter) ([]schema.Asset, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matchSet := func(values []string, v string) bool {
		if len(values) == 0 {
			return true
		}
		for _, candidate := range values {
			if candidate == v {
				return true
			}
		}
		return false
	}

	var matched []schema.Asset
	for _, asset := range s.assets {
		if asset.Burned && !filter.IncludeBurned {
			continue
		}
		if !matchSet(filter.Owners, asset.Owner) || !matchSet(filter.Creators, asset.Creator) {
			continue
		}
		matched = append(matched, *asset)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := uint64(len(matched))
	return paginate(matched, filter.Limit, filter.Offset), total, nil
}

func (s *memoryStore) TransferAsset(_ context.Context, input TransferAssetInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, err := s.liveAsset(input.AssetID)
	if err != nil {
		return err
	}
	if asset.Owner != input.Caller {
		return domain.ErrNotOwner
	}

	now := time.Now().UTC()
	from := asset.Owner
	asset.Owner = input.Recipient
	asset.UpdatedAt = now

	return s.appendEvent(domain.NewTransferredEvent(input.AssetID, from, input.Recipient, now))
}

func (s *memoryStore) BurnAsset(_ context.Context, id domain.AssetID, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, err := s.liveAsset(id)
	if err != nil {
		return err
	}
	if asset.Owner != caller {
		return domain.ErrNotOwner
	}

	asset.Burned = true
	asset.UpdatedAt = time.Now().UTC()

	for listingID, listing := range s.listings {
		if listing.AssetID == id.String() {
			delete(s.listings, listingID)
		}
	}

	return nil
}

func (s *memoryStore) UpdateAssetMetadata(_ context.Context, input UpdateMetadataInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, err := s.liveAsset(input.AssetID)
	if err != nil {
		return err
	}
	if asset.Owner != input.Caller {
		return domain.ErrNotOwner
	}

	asset.Name = input.Name
	asset.Description = input.Description
	asset.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *memoryStore) SetAssetRoyalty(_ context.Context, id domain.AssetID, rate int, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, err := s.liveAsset(id)
	if err != nil {
		return err
	}
	if asset.Owner != caller {
		return domain.ErrNotOwner
	}
	if !domain.ValidRoyaltyRate(rate) {
		return domain.ErrInvalidRoyalty
	}

	asset.Royalty = rate
	asset.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *memoryStore) CreateListing(_ context.Context, input CreateListingInput) (*schema.SaleListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, err := s.liveAsset(input.AssetID)
	if err != nil {
		return nil, err
	}
	if asset.Owner != input.Caller {
		return nil, domain.ErrNotOwner
	}

	listing := &schema.SaleListing{
		ID:        input.ID.String(),
		AssetID:   input.AssetID.String(),
		Price:     input.Price,
		Seller:    input.Caller,
		CreatedAt: time.Now().UTC(),
	}
	s.listings[listing.ID] = listing

	copied := *listing
	return &copied, nil
}

func (s *memoryStore) GetListing(_ context.Context, id domain.ListingID) (*schema.SaleListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, exists := s.listings[id.String()]
	if !exists {
		return nil, nil
	}

	copied := *listing
	return &copied, nil
}

func (s *memoryStore) GetListings(_ context.Context, filter ListingQueryFilter) ([]schema.SaleListing, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matchSet := func(values []string, v string) bool {
		if len(values) == 0 {
			return true
		}
		for _, candidate := range values {
			if candidate == v {
				return true
			}
		}
		return false
	}

	var matched []schema.SaleListing
	for _, listing := range s.listings {
		if !matchSet(filter.AssetIDs, listing.AssetID) || !matchSet(filter.Sellers, listing.Seller) {
			continue
		}
		matched = append(matched, *listing)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := uint64(len(matched))
	return paginate(matched, filter.Limit, filter.Offset), total, nil
}

func (s *memoryStore) CancelListing(_ context.Context, id domain.ListingID, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, exists := s.listings[id.String()]
	if !exists {
		return domain.ErrListingNotFound
	}
	if listing.Seller != caller {
		return domain.ErrNotOwner
	}

	delete(s.listings, id.String())
	return nil
}

func (s *memoryStore) PurchaseListing(_ context.Context, input PurchaseInput) (*PurchaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, exists := s.listings[input.ListingID.String()]
	if !exists {
		return nil, domain.ErrListingNotFound
	}

	asset, exists := s.assets[listing.AssetID]
	if !exists || asset.Burned || asset.Owner != listing.Seller {
		return nil, domain.ErrNotForSale
	}

	if input.Payment != listing.Price {
		return nil, domain.ErrInvalidPayment
	}

	royalty := domain.RoyaltyAmount(listing.Price, asset.Royalty)
	proceeds := listing.Price - royalty
	now := time.Now().UTC()

	if listing.Price > 0 {
		buyer, exists := s.accounts[input.Buyer]
		if !exists || buyer.Balance < listing.Price {
			return nil, domain.ErrInsufficientFunds
		}
		buyer.Balance -= listing.Price
		buyer.UpdatedAt = now
	}

	if royalty > 0 {
		s.creditAccount(asset.Creator, royalty, now)
	}
	if proceeds > 0 {
		s.creditAccount(listing.Seller, proceeds, now)
	}

	assetID := domain.AssetID(asset.ID)
	if err := s.appendEvent(domain.NewSoldEvent(assetID, listing.Seller, input.Buyer, listing.Price, now)); err != nil {
		return nil, err
	}

	asset.Owner = input.Buyer
	asset.UpdatedAt = now
	delete(s.listings, listing.ID)

	copied := *asset
	return &PurchaseResult{
		Asset:          &copied,
		RoyaltyPaid:    royalty,
		SellerProceeds: proceeds,
	}, nil
}

func (s *memoryStore) GetAccount(_ context.Context, address string) (*schema.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[address]
	if !exists {
		return nil, nil
	}

	copied := *account
	return &copied, nil
}

func (s *memoryStore) Deposit(_ context.Context, address string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creditAccount(address, amount, time.Now().UTC())
	return nil
}

func (s *memoryStore) GetAssetEvents(_ context.Context, id domain.AssetID, limit int, offset uint64) ([]schema.AssetEvent, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []schema.AssetEvent
	for _, event := range s.events {
		if event.AssetID == id.String() {
			matched = append(matched, *event)
		}
	}

	total := uint64(len(matched))
	return paginate(matched, limit, offset), total, nil
}

func (s *memoryStore) GetUnpublishedEvents(_ context.Context, limit int) ([]schema.AssetEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []schema.AssetEvent
	for _, event := range s.events {
		if event.PublishedAt == nil {
			pending = append(pending, *event)
			if len(pending) == limit {
				break
			}
		}
	}

	return pending, nil
}

func (s *memoryStore) MarkEventPublished(_ context.Context, eventID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range s.events {
		if event.ID == eventID {
			now := time.Now().UTC()
			event.PublishedAt = &now
			return nil
		}
	}

	return nil
}

// paginate applies limit/offset to an already-ordered slice
func paginate[T any](items []T, limit int, offset uint64) []T {
	if offset >= uint64(len(items)) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
