package dto

import (
	"fmt"

	"github.com/mintbay/registry/internal/api/shared/constants"
	apierrors "github.com/mintbay/registry/internal/api/shared/errors"
	"github.com/mintbay/registry/internal/domain"
)

// CreateAssetRequest represents the request body for minting an asset
type CreateAssetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate validates the request body
func (r *CreateAssetRequest) Validate() error {
	// Validate: name must be provided
	if r.Name == "" {
		return apierrors.NewValidationError("name is required")
	}

	if len(r.Name) > constants.MAX_NAME_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("name must be at most %d characters", constants.MAX_NAME_LENGTH))
	}

	if len(r.Description) > constants.MAX_DESCRIPTION_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("description must be at most %d characters", constants.MAX_DESCRIPTION_LENGTH))
	}

	return nil
}

// TransferAssetRequest represents the request body for transferring an asset
type TransferAssetRequest struct {
	Recipient string `json:"recipient"`
}

// Validate validates the request body
func (r *TransferAssetRequest) Validate() error {
	if !domain.ValidAddress(r.Recipient) {
		return apierrors.NewValidationError("recipient is required")
	}

	return nil
}

// UpdateMetadataRequest represents the request body for replacing an asset's
// display strings
type UpdateMetadataRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate validates the request body
func (r *UpdateMetadataRequest) Validate() error {
	if r.Name == "" {
		return apierrors.NewValidationError("name is required")
	}

	if len(r.Name) > constants.MAX_NAME_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("name must be at most %d characters", constants.MAX_NAME_LENGTH))
	}

	if len(r.Description) > constants.MAX_DESCRIPTION_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("description must be at most %d characters", constants.MAX_DESCRIPTION_LENGTH))
	}

	return nil
}

// SetRoyaltyRequest represents the request body for changing an asset's
// royalty rate. The rate range is not validated here: the ownership check
// must run first, and both live in the store.
type SetRoyaltyRequest struct {
	Rate int `json:"rate"`
}

// CreateListingRequest represents the request body for putting an asset up
// for sale. A zero price is a valid giveaway listing.
type CreateListingRequest struct {
	Price uint64 `json:"price"`
}

// PurchaseRequest represents the request body for settling a sale listing
type PurchaseRequest struct {
	Payment uint64 `json:"payment"`
}

// DepositRequest represents the request body for crediting a payment account
type DepositRequest struct {
	Amount uint64 `json:"amount"`
}

// Validate validates the request body
func (r *DepositRequest) Validate() error {
	if r.Amount == 0 {
		return apierrors.NewValidationError("amount must be positive")
	}

	return nil
}
