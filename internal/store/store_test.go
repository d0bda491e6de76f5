package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintbay/registry/internal/domain"
	"github.com/mintbay/registry/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

const (
	addrAlice = "addr_alice"
	addrBob   = "addr_bob"
	addrCarol = "addr_carol"
)

func newAssetID() domain.AssetID {
	return domain.AssetID(ulid.Make().String())
}

func newListingID() domain.ListingID {
	return domain.ListingID(uuid.NewString())
}

// mintTestAsset creates an asset owned by its creator
func mintTestAsset(t *testing.T, store Store, creator, name string) *schema.Asset {
	t.Helper()

	asset, err := store.CreateAsset(context.Background(), CreateAssetInput{
		ID:          newAssetID(),
		Name:        name,
		Description: "a test asset",
		Creator:     creator,
	})
	require.NoError(t, err)
	require.NotNil(t, asset)

	return asset
}

// listTestAsset puts an asset up for sale by its current owner
func listTestAsset(t *testing.T, store Store, asset *schema.Asset, seller string, price uint64) *schema.SaleListing {
	t.Helper()

	listing, err := store.CreateListing(context.Background(), CreateListingInput{
		ID:      newListingID(),
		AssetID: domain.AssetID(asset.ID),
		Price:   price,
		Caller:  seller,
	})
	require.NoError(t, err)
	require.NotNil(t, listing)

	return listing
}

// fundAccount deposits into an address's payment account
func fundAccount(t *testing.T, store Store, address string, amount uint64) {
	t.Helper()
	require.NoError(t, store.Deposit(context.Background(), address, amount))
}

// accountBalance reads an address's balance, treating a missing account as zero
func accountBalance(t *testing.T, store Store, address string) uint64 {
	t.Helper()

	account, err := store.GetAccount(context.Background(), address)
	require.NoError(t, err)
	if account == nil {
		return 0
	}
	return account.Balance
}

// lastEvent decodes the most recent audit-log entry for an asset
func lastEvent(t *testing.T, store Store, assetID string) domain.Event {
	t.Helper()

	events, total, err := store.GetAssetEvents(context.Background(), domain.AssetID(assetID), 100, 0)
	require.NoError(t, err)
	require.NotZero(t, total)

	var event domain.Event
	require.NoError(t, json.Unmarshal(events[len(events)-1].Payload, &event))
	return event
}

// =============================================================================
// Test: CreateAsset / GetAsset
// =============================================================================

func testCreateAsset(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("mint sets creator as first owner with zero royalty", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Sunrise")

		assert.Equal(t, addrAlice, asset.Creator)
		assert.Equal(t, addrAlice, asset.Owner)
		assert.Equal(t, 0, asset.Royalty)
		assert.False(t, asset.Burned)

		got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, asset.ID, got.ID)
		assert.Equal(t, "Sunrise", got.Name)
	})

	t.Run("mint records a created event", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Dawn")

		event := lastEvent(t, store, asset.ID)
		assert.Equal(t, domain.EventTypeCreated, event.Type)
		assert.Equal(t, asset.ID, event.AssetID.String())
		assert.Equal(t, "Dawn", event.Name)
		assert.Equal(t, addrAlice, event.Creator)
	})

	t.Run("duplicate identifier is rejected", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "First")

		_, err := store.CreateAsset(ctx, CreateAssetInput{
			ID:      domain.AssetID(asset.ID),
			Name:    "Second",
			Creator: addrBob,
		})
		assert.ErrorIs(t, err, domain.ErrAssetAlreadyExists)

		// The original asset is untouched
		got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "First", got.Name)
		assert.Equal(t, addrAlice, got.Owner)
	})

	t.Run("unknown asset returns nil without error", func(t *testing.T) {
		got, err := store.GetAsset(ctx, newAssetID())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

// =============================================================================
// Test: TransferAsset
// =============================================================================

func testTransferAsset(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("owner transfers to recipient", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Piece")

		err := store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrAlice,
			Recipient: addrBob,
		})
		require.NoError(t, err)

		got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
		require.NoError(t, err)
		assert.Equal(t, addrBob, got.Owner)
		assert.Equal(t, addrAlice, got.Creator)

		event := lastEvent(t, store, asset.ID)
		assert.Equal(t, domain.EventTypeTransferred, event.Type)
		assert.Equal(t, addrAlice, event.From)
		assert.Equal(t, addrBob, event.To)
	})

	t.Run("non-owner cannot transfer", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Piece")

		err := store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrBob,
			Recipient: addrCarol,
		})
		assert.ErrorIs(t, err, domain.ErrNotOwner)

		got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
		require.NoError(t, err)
		assert.Equal(t, addrAlice, got.Owner)
	})

	t.Run("previous owner loses rights after transfer", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Piece")

		require.NoError(t, store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrAlice,
			Recipient: addrBob,
		}))

		err := store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrAlice,
			Recipient: addrCarol,
		})
		assert.ErrorIs(t, err, domain.ErrNotOwner)
	})

	t.Run("self transfer keeps ownership and records the event", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Piece")

		err := store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrAlice,
			Recipient: addrAlice,
		})
		require.NoError(t, err)

		got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
		require.NoError(t, err)
		assert.Equal(t, addrAlice, got.Owner)

		event := lastEvent(t, store, asset.ID)
		assert.Equal(t, domain.EventTypeTransferred, event.Type)
		assert.Equal(t, addrAlice, event.From)
		assert.Equal(t, addrAlice, event.To)
	})

	t.Run("unknown asset", func(t *testing.T) {
		err := store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   newAssetID(),
			Caller:    addrAlice,
			Recipient: addrBob,
		})
		assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	})
}

// =============================================================================
// Test: BurnAsset
// =============================================================================

func testBurnAsset(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("owner burns asset and the identifier stays retired", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Ephemeral")

		require.NoError(t, store.BurnAsset(ctx, domain.AssetID(asset.ID), addrAlice))

		// The record survives as burned so the ID can never be reused
		got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Burned)

		_, err = store.CreateAsset(ctx, CreateAssetInput{
			ID:      domain.AssetID(asset.ID),
			Name:    "Reborn",
			Creator: addrBob,
		})
		assert.ErrorIs(t, err, domain.ErrAssetAlreadyExists)
	})

	t.Run("non-owner cannot burn", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Ephemeral")

		err := store.BurnAsset(ctx, domain.AssetID(asset.ID), addrBob)
		assert.ErrorIs(t, err, domain.ErrNotOwner)
	})

	t.Run("burned asset rejects further mutation", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Ephemeral")
		require.NoError(t, store.BurnAsset(ctx, domain.AssetID(asset.ID), addrAlice))

		err := store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrAlice,
			Recipient: addrBob,
		})
		assert.ErrorIs(t, err, domain.ErrAssetNotFound)

		err = store.BurnAsset(ctx, domain.AssetID(asset.ID), addrAlice)
		assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	})

	t.Run("burn drops open listings", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Ephemeral")
		listing := listTestAsset(t, store, asset, addrAlice, 100)

		require.NoError(t, store.BurnAsset(ctx, domain.AssetID(asset.ID), addrAlice))

		got, err := store.GetListing(ctx, domain.ListingID(listing.ID))
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

// =============================================================================
// Test: UpdateAssetMetadata / SetAssetRoyalty
// =============================================================================

func testUpdateAssetMetadata(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("owner replaces name and description", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Draft")

		err := store.UpdateAssetMetadata(ctx, UpdateMetadataInput{
			AssetID:     domain.AssetID(asset.ID),
			Caller:      addrAlice,
			Name:        "Final",
			Description: "finished work",
		})
		require.NoError(t, err)

		got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
		require.NoError(t, err)
		assert.Equal(t, "Final", got.Name)
		assert.Equal(t, "finished work", got.Description)
	})

	t.Run("non-owner cannot update metadata", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Draft")

		err := store.UpdateAssetMetadata(ctx, UpdateMetadataInput{
			AssetID: domain.AssetID(asset.ID),
			Caller:  addrBob,
			Name:    "Hijacked",
		})
		assert.ErrorIs(t, err, domain.ErrNotOwner)
	})
}

func testSetAssetRoyalty(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("owner sets royalty within bounds", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Royal")

		for _, rate := range []int{0, 10, 100} {
			require.NoError(t, store.SetAssetRoyalty(ctx, domain.AssetID(asset.ID), rate, addrAlice))

			got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
			require.NoError(t, err)
			assert.Equal(t, rate, got.Royalty)
		}
	})

	t.Run("out of range rate is rejected", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Royal")

		assert.ErrorIs(t, store.SetAssetRoyalty(ctx, domain.AssetID(asset.ID), -1, addrAlice), domain.ErrInvalidRoyalty)
		assert.ErrorIs(t, store.SetAssetRoyalty(ctx, domain.AssetID(asset.ID), 101, addrAlice), domain.ErrInvalidRoyalty)
	})

	t.Run("ownership is checked before the rate", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Royal")

		err := store.SetAssetRoyalty(ctx, domain.AssetID(asset.ID), 500, addrBob)
		assert.ErrorIs(t, err, domain.ErrNotOwner)
	})

	t.Run("royalty survives transfer and stays under the new owner's control", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Royal")
		require.NoError(t, store.SetAssetRoyalty(ctx, domain.AssetID(asset.ID), 15, addrAlice))

		require.NoError(t, store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrAlice,
			Recipient: addrBob,
		}))

		got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
		require.NoError(t, err)
		assert.Equal(t, 15, got.Royalty)

		// The creator no longer controls the rate, the new owner does
		assert.ErrorIs(t, store.SetAssetRoyalty(ctx, domain.AssetID(asset.ID), 20, addrAlice), domain.ErrNotOwner)
		require.NoError(t, store.SetAssetRoyalty(ctx, domain.AssetID(asset.ID), 20, addrBob))
	})
}

// =============================================================================
// Test: GetAssets
// =============================================================================

func testGetAssets(t *testing.T, store Store) {
	ctx := context.Background()

	creator := "addr_filter_creator"
	holder := "addr_filter_holder"

	var minted []*schema.Asset
	for i := 0; i < 5; i++ {
		minted = append(minted, mintTestAsset(t, store, creator, "Filtered"))
	}
	require.NoError(t, store.TransferAsset(ctx, TransferAssetInput{
		AssetID:   domain.AssetID(minted[0].ID),
		Caller:    creator,
		Recipient: holder,
	}))
	require.NoError(t, store.BurnAsset(ctx, domain.AssetID(minted[4].ID), creator))

	t.Run("filter by owner", func(t *testing.T) {
		assets, total, err := store.GetAssets(ctx, AssetQueryFilter{
			Owners: []string{holder},
			Limit:  10,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), total)
		require.Len(t, assets, 1)
		assert.Equal(t, minted[0].ID, assets[0].ID)
	})

	t.Run("filter by creator excludes burned by default", func(t *testing.T) {
		assets, total, err := store.GetAssets(ctx, AssetQueryFilter{
			Creators: []string{creator},
			Limit:    10,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(4), total)
		for _, asset := range assets {
			assert.False(t, asset.Burned)
		}
	})

	t.Run("include burned", func(t *testing.T) {
		_, total, err := store.GetAssets(ctx, AssetQueryFilter{
			Creators:      []string{creator},
			IncludeBurned: true,
			Limit:         10,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(5), total)
	})

	t.Run("pagination follows creation order", func(t *testing.T) {
		first, total, err := store.GetAssets(ctx, AssetQueryFilter{
			Creators: []string{creator},
			Limit:    2,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(4), total)
		require.Len(t, first, 2)

		second, _, err := store.GetAssets(ctx, AssetQueryFilter{
			Creators: []string{creator},
			Limit:    2,
			Offset:   2,
		})
		require.NoError(t, err)
		require.Len(t, second, 2)
		assert.Less(t, first[1].ID, second[0].ID)
	})
}

// =============================================================================
// Test: CreateListing / GetListings / CancelListing
// =============================================================================

func testCreateListing(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("owner lists asset at a fixed price", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "ForSale")
		listing := listTestAsset(t, store, asset, addrAlice, 250)

		assert.Equal(t, asset.ID, listing.AssetID)
		assert.Equal(t, uint64(250), listing.Price)
		assert.Equal(t, addrAlice, listing.Seller)

		got, err := store.GetListing(ctx, domain.ListingID(listing.ID))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, listing.ID, got.ID)
	})

	t.Run("zero price is accepted", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Gift")
		listing := listTestAsset(t, store, asset, addrAlice, 0)
		assert.Equal(t, uint64(0), listing.Price)
	})

	t.Run("non-owner cannot list", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "ForSale")

		_, err := store.CreateListing(ctx, CreateListingInput{
			ID:      newListingID(),
			AssetID: domain.AssetID(asset.ID),
			Price:   100,
			Caller:  addrBob,
		})
		assert.ErrorIs(t, err, domain.ErrNotOwner)
	})

	t.Run("listing a burned asset fails", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Gone")
		require.NoError(t, store.BurnAsset(ctx, domain.AssetID(asset.ID), addrAlice))

		_, err := store.CreateListing(ctx, CreateListingInput{
			ID:      newListingID(),
			AssetID: domain.AssetID(asset.ID),
			Price:   100,
			Caller:  addrAlice,
		})
		assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	})

	t.Run("unknown listing returns nil without error", func(t *testing.T) {
		got, err := store.GetListing(ctx, newListingID())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func testGetListings(t *testing.T, store Store) {
	ctx := context.Background()

	seller := "addr_listing_seller"
	asset1 := mintTestAsset(t, store, seller, "One")
	asset2 := mintTestAsset(t, store, seller, "Two")
	listTestAsset(t, store, asset1, seller, 100)
	listTestAsset(t, store, asset2, seller, 200)

	t.Run("filter by seller", func(t *testing.T) {
		listings, total, err := store.GetListings(ctx, ListingQueryFilter{
			Sellers: []string{seller},
			Limit:   10,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), total)
		assert.Len(t, listings, 2)
	})

	t.Run("filter by asset", func(t *testing.T) {
		listings, total, err := store.GetListings(ctx, ListingQueryFilter{
			AssetIDs: []string{asset1.ID},
			Limit:    10,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), total)
		require.Len(t, listings, 1)
		assert.Equal(t, uint64(100), listings[0].Price)
	})
}

func testCancelListing(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("seller cancels their listing", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Withdrawn")
		listing := listTestAsset(t, store, asset, addrAlice, 100)

		require.NoError(t, store.CancelListing(ctx, domain.ListingID(listing.ID), addrAlice))

		got, err := store.GetListing(ctx, domain.ListingID(listing.ID))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("only the seller may cancel", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Withdrawn")
		listing := listTestAsset(t, store, asset, addrAlice, 100)

		err := store.CancelListing(ctx, domain.ListingID(listing.ID), addrBob)
		assert.ErrorIs(t, err, domain.ErrNotOwner)
	})

	t.Run("unknown listing", func(t *testing.T) {
		err := store.CancelListing(ctx, newListingID(), addrAlice)
		assert.ErrorIs(t, err, domain.ErrListingNotFound)
	})
}

// =============================================================================
// Test: PurchaseListing
// =============================================================================

func testPurchaseListing(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("purchase splits payment between creator and seller", func(t *testing.T) {
		// The creator sells on the secondary market: Alice mints with a 10%
		// royalty, hands the asset to Bob, and Bob lists it for 200
		asset := mintTestAsset(t, store, addrAlice, "Masterwork")
		require.NoError(t, store.SetAssetRoyalty(ctx, domain.AssetID(asset.ID), 10, addrAlice))
		require.NoError(t, store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrAlice,
			Recipient: addrBob,
		}))
		listing := listTestAsset(t, store, asset, addrBob, 200)

		fundAccount(t, store, addrCarol, 500)

		result, err := store.PurchaseListing(ctx, PurchaseInput{
			ListingID: domain.ListingID(listing.ID),
			Buyer:     addrCarol,
			Payment:   200,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(20), result.RoyaltyPaid)
		assert.Equal(t, uint64(180), result.SellerProceeds)
		assert.Equal(t, addrCarol, result.Asset.Owner)

		assert.Equal(t, uint64(300), accountBalance(t, store, addrCarol))
		assert.Equal(t, uint64(20), accountBalance(t, store, addrAlice))
		assert.Equal(t, uint64(180), accountBalance(t, store, addrBob))

		got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
		require.NoError(t, err)
		assert.Equal(t, addrCarol, got.Owner)

		gone, err := store.GetListing(ctx, domain.ListingID(listing.ID))
		require.NoError(t, err)
		assert.Nil(t, gone)

		event := lastEvent(t, store, asset.ID)
		assert.Equal(t, domain.EventTypeSold, event.Type)
		assert.Equal(t, addrBob, event.Seller)
		assert.Equal(t, addrCarol, event.Buyer)
		assert.Equal(t, uint64(200), event.Price)
	})

	t.Run("creator selling their own asset receives the full price", func(t *testing.T) {
		creator := "addr_self_seller"
		buyer := "addr_self_buyer"

		asset := mintTestAsset(t, store, creator, "Primary")
		require.NoError(t, store.SetAssetRoyalty(ctx, domain.AssetID(asset.ID), 25, creator))
		listing := listTestAsset(t, store, asset, creator, 100)

		fundAccount(t, store, buyer, 100)

		result, err := store.PurchaseListing(ctx, PurchaseInput{
			ListingID: domain.ListingID(listing.ID),
			Buyer:     buyer,
			Payment:   100,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(25), result.RoyaltyPaid)
		assert.Equal(t, uint64(75), result.SellerProceeds)

		// Royalty and proceeds land in the same account
		assert.Equal(t, uint64(100), accountBalance(t, store, creator))
		assert.Equal(t, uint64(0), accountBalance(t, store, buyer))
	})

	t.Run("royalty rounds down and the seller keeps the remainder", func(t *testing.T) {
		seller := "addr_floor_seller"
		buyer := "addr_floor_buyer"

		asset := mintTestAsset(t, store, seller, "Odd")
		require.NoError(t, store.SetAssetRoyalty(ctx, domain.AssetID(asset.ID), 33, seller))
		require.NoError(t, store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    seller,
			Recipient: addrBob,
		}))
		listing := listTestAsset(t, store, asset, addrBob, 10)

		fundAccount(t, store, buyer, 10)

		result, err := store.PurchaseListing(ctx, PurchaseInput{
			ListingID: domain.ListingID(listing.ID),
			Buyer:     buyer,
			Payment:   10,
		})
		require.NoError(t, err)
		// floor(10 * 33 / 100) = 3
		assert.Equal(t, uint64(3), result.RoyaltyPaid)
		assert.Equal(t, uint64(7), result.SellerProceeds)
	})

	t.Run("payment must match the price exactly", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Exact")
		listing := listTestAsset(t, store, asset, addrAlice, 100)
		fundAccount(t, store, addrBob, 1000)

		for _, payment := range []uint64{99, 101, 0} {
			_, err := store.PurchaseListing(ctx, PurchaseInput{
				ListingID: domain.ListingID(listing.ID),
				Buyer:     addrBob,
				Payment:   payment,
			})
			assert.ErrorIs(t, err, domain.ErrInvalidPayment)
		}

		// Nothing settled
		got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
		require.NoError(t, err)
		assert.Equal(t, addrAlice, got.Owner)
	})

	t.Run("stale listing after an off-market transfer", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Stale")
		listing := listTestAsset(t, store, asset, addrAlice, 100)

		// The asset changes hands while the listing is still open
		require.NoError(t, store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrAlice,
			Recipient: addrBob,
		}))

		fundAccount(t, store, addrCarol, 100)
		_, err := store.PurchaseListing(ctx, PurchaseInput{
			ListingID: domain.ListingID(listing.ID),
			Buyer:     addrCarol,
			Payment:   100,
		})
		assert.ErrorIs(t, err, domain.ErrNotForSale)

		// Staleness reports before any payment validation
		_, err = store.PurchaseListing(ctx, PurchaseInput{
			ListingID: domain.ListingID(listing.ID),
			Buyer:     addrCarol,
			Payment:   1,
		})
		assert.ErrorIs(t, err, domain.ErrNotForSale)
	})

	t.Run("listing for a burned asset cannot settle", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Ash")
		listing := listTestAsset(t, store, asset, addrAlice, 100)
		require.NoError(t, store.BurnAsset(ctx, domain.AssetID(asset.ID), addrAlice))

		_, err := store.PurchaseListing(ctx, PurchaseInput{
			ListingID: domain.ListingID(listing.ID),
			Buyer:     addrBob,
			Payment:   100,
		})
		// Burning drops its listings, so the reference is simply gone
		assert.ErrorIs(t, err, domain.ErrListingNotFound)
	})

	t.Run("insufficient funds leaves everything untouched", func(t *testing.T) {
		seller := "addr_poor_seller"
		buyer := "addr_poor_buyer"

		asset := mintTestAsset(t, store, seller, "Pricey")
		listing := listTestAsset(t, store, asset, seller, 100)
		fundAccount(t, store, buyer, 99)

		_, err := store.PurchaseListing(ctx, PurchaseInput{
			ListingID: domain.ListingID(listing.ID),
			Buyer:     buyer,
			Payment:   100,
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		assert.Equal(t, uint64(99), accountBalance(t, store, buyer))
		assert.Equal(t, uint64(0), accountBalance(t, store, seller))

		got, err := store.GetAsset(ctx, domain.AssetID(asset.ID))
		require.NoError(t, err)
		assert.Equal(t, seller, got.Owner)

		stillThere, err := store.GetListing(ctx, domain.ListingID(listing.ID))
		require.NoError(t, err)
		assert.NotNil(t, stillThere)
	})

	t.Run("zero price listing settles without funds", func(t *testing.T) {
		buyer := "addr_free_buyer"

		asset := mintTestAsset(t, store, addrAlice, "Free")
		listing := listTestAsset(t, store, asset, addrAlice, 0)

		result, err := store.PurchaseListing(ctx, PurchaseInput{
			ListingID: domain.ListingID(listing.ID),
			Buyer:     buyer,
			Payment:   0,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(0), result.RoyaltyPaid)
		assert.Equal(t, uint64(0), result.SellerProceeds)
		assert.Equal(t, buyer, result.Asset.Owner)
	})

	t.Run("unknown listing", func(t *testing.T) {
		_, err := store.PurchaseListing(ctx, PurchaseInput{
			ListingID: newListingID(),
			Buyer:     addrBob,
			Payment:   100,
		})
		assert.ErrorIs(t, err, domain.ErrListingNotFound)
	})
}

// =============================================================================
// Test: Accounts
// =============================================================================

func testAccounts(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("deposit accumulates", func(t *testing.T) {
		address := "addr_deposit"

		require.NoError(t, store.Deposit(ctx, address, 100))
		require.NoError(t, store.Deposit(ctx, address, 50))

		account, err := store.GetAccount(ctx, address)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, uint64(150), account.Balance)
	})

	t.Run("unknown account returns nil without error", func(t *testing.T) {
		account, err := store.GetAccount(ctx, "addr_never_seen")
		require.NoError(t, err)
		assert.Nil(t, account)
	})
}

// =============================================================================
// Test: Events and the outbox
// =============================================================================

func testAssetEvents(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("audit log preserves emission order", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Chronicle")
		require.NoError(t, store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrAlice,
			Recipient: addrBob,
		}))
		require.NoError(t, store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrBob,
			Recipient: addrCarol,
		}))

		events, total, err := store.GetAssetEvents(ctx, domain.AssetID(asset.ID), 10, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), total)
		require.Len(t, events, 3)
		assert.Equal(t, domain.EventTypeCreated, events[0].Type)
		assert.Equal(t, domain.EventTypeTransferred, events[1].Type)
		assert.Equal(t, domain.EventTypeTransferred, events[2].Type)

		var first, second domain.Event
		require.NoError(t, json.Unmarshal(events[1].Payload, &first))
		require.NoError(t, json.Unmarshal(events[2].Payload, &second))
		assert.Equal(t, addrBob, first.To)
		assert.Equal(t, addrBob, second.From)
	})

	t.Run("pagination", func(t *testing.T) {
		asset := mintTestAsset(t, store, addrAlice, "Paged")
		require.NoError(t, store.TransferAsset(ctx, TransferAssetInput{
			AssetID:   domain.AssetID(asset.ID),
			Caller:    addrAlice,
			Recipient: addrBob,
		}))

		events, total, err := store.GetAssetEvents(ctx, domain.AssetID(asset.ID), 1, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), total)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventTypeTransferred, events[0].Type)
	})
}

func testEventOutbox(t *testing.T, store Store) {
	ctx := context.Background()

	asset := mintTestAsset(t, store, addrAlice, "Relayed")
	require.NoError(t, store.TransferAsset(ctx, TransferAssetInput{
		AssetID:   domain.AssetID(asset.ID),
		Caller:    addrAlice,
		Recipient: addrBob,
	}))

	pending, err := store.GetUnpublishedEvents(ctx, 100)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(pending), 2)

	for _, event := range pending {
		require.NoError(t, store.MarkEventPublished(ctx, event.ID))
	}

	drained, err := store.GetUnpublishedEvents(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, drained)
}

// =============================================================================
// Test Suite Runner
// =============================================================================

// RunStoreTests runs the full store suite against an implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"CreateAsset", testCreateAsset},
		{"TransferAsset", testTransferAsset},
		{"BurnAsset", testBurnAsset},
		{"UpdateAssetMetadata", testUpdateAssetMetadata},
		{"SetAssetRoyalty", testSetAssetRoyalty},
		{"GetAssets", testGetAssets},
		{"CreateListing", testCreateListing},
		{"GetListings", testGetListings},
		{"CancelListing", testCancelListing},
		{"PurchaseListing", testPurchaseListing},
		{"Accounts", testAccounts},
		{"AssetEvents", testAssetEvents},
		{"EventOutbox", testEventOutbox},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
