package domain

import "errors"

var (
	// ErrNotOwner is returned when the caller does not hold current ownership
	// of the asset or listing being mutated
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrInvalidRoyalty is returned when a proposed royalty rate is outside [0,100]
	ErrInvalidRoyalty = errors.New("royalty rate out of range")

	// ErrInvalidPayment is returned when the supplied payment does not exactly
	// equal the listing price
	ErrInvalidPayment = errors.New("payment does not match listing price")

	// ErrNotForSale is returned when the asset's current owner no longer
	// matches the listing's recorded seller (stale listing)
	ErrNotForSale = errors.New("asset is not for sale")

	// ErrAssetNotFound is returned when an asset does not exist or has been burned
	ErrAssetNotFound = errors.New("asset not found")

	// ErrListingNotFound is returned when a sale listing does not exist
	ErrListingNotFound = errors.New("listing not found")

	// ErrInsufficientFunds is returned when the buyer's account cannot cover
	// the listing price
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAssetAlreadyExists is returned when attempting to mint an asset with
	// an identifier that is already taken
	ErrAssetAlreadyExists = errors.New("asset already exists")
)
