package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// AssetID is the canonical asset identifier, a ULID assigned at creation and
// never reused (see internal/identity).
type AssetID string

// String returns the string representation of the AssetID
func (id AssetID) String() string {
	return string(id)
}

// Valid checks if the AssetID is a well-formed ULID
func (id AssetID) Valid() bool {
	_, err := ulid.ParseStrict(string(id))
	return err == nil
}

// ListingID is the sale listing identifier. Listings live in a separate ID
// namespace from assets (UUIDv4 vs ULID).
type ListingID string

// String returns the string representation of the ListingID
func (id ListingID) String() string {
	return string(id)
}

// Valid checks if the ListingID is a well-formed UUID
func (id ListingID) Valid() bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}

// EventType represents the type of registry event
type EventType string

const (
	EventTypeCreated     EventType = "created"
	EventTypeTransferred EventType = "transferred"
	EventTypeSold        EventType = "sold"
)

// Event represents a normalized registry event
// This is the standard format recorded in the audit log and published to NATS
type Event struct {
	Type    EventType `json:"type"`
	AssetID AssetID   `json:"asset_id"`

	// Created fields
	Name    string `json:"name,omitempty"`
	Creator string `json:"creator,omitempty"`

	// Transferred fields
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// Sold fields
	Seller string `json:"seller,omitempty"`
	Buyer  string `json:"buyer,omitempty"`
	Price  uint64 `json:"price,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

func (e *Event) Valid() bool {
	if !e.AssetID.Valid() {
		return false
	}

	switch e.Type {
	case EventTypeCreated:
		return e.Creator != ""
	case EventTypeTransferred:
		return e.From != "" && e.To != ""
	case EventTypeSold:
		return e.Seller != "" && e.Buyer != ""
	default:
		return false
	}
}

// NewCreatedEvent builds the event emitted when an asset is minted
func NewCreatedEvent(id AssetID, name, creator string, at time.Time) Event {
	return Event{
		Type:      EventTypeCreated,
		AssetID:   id,
		Name:      name,
		Creator:   creator,
		Timestamp: at,
	}
}

// NewTransferredEvent builds the event emitted when an asset changes hands.
// from must be the owner recorded before the transfer applies.
func NewTransferredEvent(id AssetID, from, to string, at time.Time) Event {
	return Event{
		Type:      EventTypeTransferred,
		AssetID:   id,
		From:      from,
		To:        to,
		Timestamp: at,
	}
}

// NewSoldEvent builds the event emitted when a purchase settles
func NewSoldEvent(id AssetID, seller, buyer string, price uint64, at time.Time) Event {
	return Event{
		Type:      EventTypeSold,
		AssetID:   id,
		Seller:    seller,
		Buyer:     buyer,
		Price:     price,
		Timestamp: at,
	}
}

// MaxRoyaltyRate is the upper bound of the royalty percentage range
const MaxRoyaltyRate = 100

// ValidRoyaltyRate checks if a royalty rate is within [0,100]
func ValidRoyaltyRate(rate int) bool {
	return rate >= 0 && rate <= MaxRoyaltyRate
}

// ValidAddress checks if an address is usable as a caller or recipient
// identity. Addresses are opaque to the registry; the host identity layer
// defines their format.
func ValidAddress(address string) bool {
	return address != ""
}
