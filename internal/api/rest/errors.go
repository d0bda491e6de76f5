package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/mintbay/registry/internal/api/shared/errors"
	"github.com/mintbay/registry/internal/domain"
	"github.com/mintbay/registry/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondNotFound responds with a not found error
func respondNotFound(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusNotFound, apierrors.NewNotFoundError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusUnprocessableEntity, apierrors.NewValidationError(message))
}

// respondInternalError responds with an internal server error and logs it
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.Error(err, fields...)
	c.JSON(http.StatusInternalServerError, apierrors.NewInternalError(message))
}

// respondDomainError maps a store/domain error onto the HTTP surface:
//   - missing asset or listing: 404
//   - caller lacks ownership: 403
//   - stale listing or duplicate identifier: 409
//   - bad royalty, payment mismatch, or uncovered balance: 422
//
// Anything unrecognized is treated as an internal failure.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAssetNotFound):
		c.JSON(http.StatusNotFound, apierrors.NewNotFoundError("Asset not found"))
	case errors.Is(err, domain.ErrListingNotFound):
		c.JSON(http.StatusNotFound, apierrors.NewNotFoundError("Listing not found"))
	case errors.Is(err, domain.ErrNotOwner):
		c.JSON(http.StatusForbidden, apierrors.NewForbiddenError("Caller is not the owner"))
	case errors.Is(err, domain.ErrNotForSale):
		c.JSON(http.StatusConflict, apierrors.NewConflictError("Asset is not for sale", err.Error()))
	case errors.Is(err, domain.ErrAssetAlreadyExists):
		c.JSON(http.StatusConflict, apierrors.NewConflictError("Asset already exists"))
	case errors.Is(err, domain.ErrInvalidRoyalty):
		c.JSON(http.StatusUnprocessableEntity, apierrors.NewUnprocessableError("Royalty rate out of range"))
	case errors.Is(err, domain.ErrInvalidPayment):
		c.JSON(http.StatusUnprocessableEntity, apierrors.NewUnprocessableError("Payment does not match listing price"))
	case errors.Is(err, domain.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, apierrors.NewUnprocessableError("Insufficient funds"))
	default:
		respondInternalError(c, err, "Unexpected error")
	}
}
