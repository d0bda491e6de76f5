// Package identity allocates globally unique, non-reusable asset identifiers.
// IDs are ULIDs drawn from a monotonic entropy source, so they are unique,
// lexicographically ordered by creation time, and never reissued. The asset
// table's primary-key constraint backstops uniqueness across processes.
package identity

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/mintbay/registry/internal/domain"
)

// Allocator produces unique asset identifiers
//
//go:generate mockgen -source=allocator.go -destination=../mocks/allocator.go -package=mocks -mock_names=Allocator=MockAllocator
type Allocator interface {
	// NextAssetID returns a fresh asset identifier
	NextAssetID() domain.AssetID
	// NextListingID returns a fresh sale listing identifier. Listings live in
	// their own UUID namespace, separate from asset ULIDs.
	NextListingID() domain.ListingID
}

type ulidAllocator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewAllocator creates a ULID-backed allocator
func NewAllocator() Allocator {
	return &ulidAllocator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NextAssetID returns a fresh asset identifier
func (a *ulidAllocator) NextAssetID() domain.AssetID {
	a.mu.Lock()
	defer a.mu.Unlock()

	return domain.AssetID(ulid.MustNew(ulid.Timestamp(time.Now()), a.entropy).String())
}

// NextListingID returns a fresh sale listing identifier
func (a *ulidAllocator) NextListingID() domain.ListingID {
	return domain.ListingID(uuid.NewString())
}
