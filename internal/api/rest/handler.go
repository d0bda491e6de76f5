package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/mintbay/registry/internal/api/shared/errors"

	"github.com/mintbay/registry/internal/api/middleware"
	"github.com/mintbay/registry/internal/api/shared/dto"
	"github.com/mintbay/registry/internal/domain"
	"github.com/mintbay/registry/internal/identity"
	"github.com/mintbay/registry/internal/store"
)

// Handler defines the interface for REST API handlers
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// CreateAsset mints a new asset owned by the caller
	// POST /api/v1/assets
	CreateAsset(c *gin.Context)

	// GetAsset retrieves a single asset by ID
	// GET /api/v1/assets/:id
	GetAsset(c *gin.Context)

	// ListAssets retrieves assets with optional filters
	// GET /api/v1/assets?owner=<address>&creator=<address>&include_burned=<bool>&limit=<limit>&offset=<offset>
	ListAssets(c *gin.Context)

	// GetAssetEvents retrieves an asset's audit log in emission order
	// GET /api/v1/assets/:id/events?limit=<limit>&offset=<offset>
	GetAssetEvents(c *gin.Context)

	// TransferAsset moves an asset from the caller to a recipient
	// POST /api/v1/assets/:id/transfer
	TransferAsset(c *gin.Context)

	// BurnAsset permanently destroys an asset owned by the caller
	// POST /api/v1/assets/:id/burn
	BurnAsset(c *gin.Context)

	// UpdateAssetMetadata replaces an asset's name and description
	// PUT /api/v1/assets/:id/metadata
	UpdateAssetMetadata(c *gin.Context)

	// SetAssetRoyalty replaces an asset's royalty rate
	// PUT /api/v1/assets/:id/royalty
	SetAssetRoyalty(c *gin.Context)

	// CreateListing puts an asset owned by the caller up for sale
	// POST /api/v1/assets/:id/listings
	CreateListing(c *gin.Context)

	// GetListing retrieves a single sale listing by ID
	// GET /api/v1/listings/:id
	GetListing(c *gin.Context)

	// ListListings retrieves sale listings with optional filters
	// GET /api/v1/listings?asset_id=<id>&seller=<address>&limit=<limit>&offset=<offset>
	ListListings(c *gin.Context)

	// PurchaseListing settles a sale listing for the caller
	// POST /api/v1/listings/:id/purchase
	PurchaseListing(c *gin.Context)

	// CancelListing withdraws a sale listing created by the caller
	// DELETE /api/v1/listings/:id
	CancelListing(c *gin.Context)

	// GetAccount retrieves a payment account by address
	// GET /api/v1/accounts/:address
	GetAccount(c *gin.Context)

	// Deposit credits a payment account (operator only)
	// POST /api/v1/accounts/:address/deposit
	Deposit(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store     store.Store
	allocator identity.Allocator
}

// NewHandler creates a new REST API handler
func NewHandler(st store.Store, allocator identity.Allocator) Handler {
	return &handler{
		store:     st,
		allocator: allocator,
	}
}

// callerAddress resolves the acting address or writes the error response
func callerAddress(c *gin.Context) (string, bool) {
	address, err := middleware.CallerAddress(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorizedError("Caller address required", err.Error()))
		return "", false
	}
	return address, true
}

// assetIDParam validates the :id path parameter
func assetIDParam(c *gin.Context) (domain.AssetID, bool) {
	id := domain.AssetID(c.Param("id"))
	if !id.Valid() {
		respondBadRequest(c, "Invalid asset ID")
		return "", false
	}
	return id, true
}

// listingIDParam validates the :id path parameter
func listingIDParam(c *gin.Context) (domain.ListingID, bool) {
	id := domain.ListingID(c.Param("id"))
	if !id.Valid() {
		respondBadRequest(c, "Invalid listing ID")
		return "", false
	}
	return id, true
}

// CreateAsset mints a new asset owned by the caller
func (h *handler) CreateAsset(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req dto.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	asset, err := h.store.CreateAsset(c.Request.Context(), store.CreateAssetInput{
		ID:          h.allocator.NextAssetID(),
		Name:        req.Name,
		Description: req.Description,
		Creator:     caller,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MapAssetToDTO(asset))
}

// GetAsset retrieves a single asset by ID
func (h *handler) GetAsset(c *gin.Context) {
	id, ok := assetIDParam(c)
	if !ok {
		return
	}

	asset, err := h.store.GetAsset(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "Failed to get asset", zap.String("asset_id", id.String()))
		return
	}
	if asset == nil {
		respondNotFound(c, "Asset not found")
		return
	}

	c.JSON(http.StatusOK, dto.MapAssetToDTO(asset))
}

// ListAssets retrieves assets with optional filters
func (h *handler) ListAssets(c *gin.Context) {
	params, err := ParseListAssetsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	assets, total, err := h.store.GetAssets(c.Request.Context(), store.AssetQueryFilter{
		Owners:        params.Owners,
		Creators:      params.Creators,
		IncludeBurned: params.IncludeBurned,
		Limit:         params.Limit,
		Offset:        params.Offset,
	})
	if err != nil {
		respondInternalError(c, err, "Failed to list assets")
		return
	}

	response := dto.AssetListResponse{
		Assets: make([]dto.AssetResponse, 0, len(assets)),
		Offset: &params.Offset,
		Total:  total,
	}
	for i := range assets {
		response.Assets = append(response.Assets, dto.MapAssetToDTO(&assets[i]))
	}

	c.JSON(http.StatusOK, response)
}

// GetAssetEvents retrieves an asset's audit log in emission order
func (h *handler) GetAssetEvents(c *gin.Context) {
	id, ok := assetIDParam(c)
	if !ok {
		return
	}

	params, err := ParseListEventsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	// The audit log is visible for burned assets too; only a never-allocated
	// ID is a 404
	asset, err := h.store.GetAsset(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "Failed to get asset", zap.String("asset_id", id.String()))
		return
	}
	if asset == nil {
		respondNotFound(c, "Asset not found")
		return
	}

	rows, total, err := h.store.GetAssetEvents(c.Request.Context(), id, params.Limit, params.Offset)
	if err != nil {
		respondInternalError(c, err, "Failed to get asset events", zap.String("asset_id", id.String()))
		return
	}

	response := dto.EventListResponse{
		Events: make([]dto.EventResponse, 0, len(rows)),
		Offset: &params.Offset,
		Total:  total,
	}
	for i := range rows {
		event, err := dto.MapEventToDTO(&rows[i])
		if err != nil {
			respondInternalError(c, err, "Failed to decode asset event", zap.Uint64("event_id", rows[i].ID))
			return
		}
		response.Events = append(response.Events, event)
	}

	c.JSON(http.StatusOK, response)
}

// TransferAsset moves an asset from the caller to a recipient
func (h *handler) TransferAsset(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := assetIDParam(c)
	if !ok {
		return
	}

	var req dto.TransferAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	err := h.store.TransferAsset(c.Request.Context(), store.TransferAssetInput{
		AssetID:   id,
		Caller:    caller,
		Recipient: req.Recipient,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	asset, err := h.store.GetAsset(c.Request.Context(), id)
	if err != nil || asset == nil {
		respondInternalError(c, err, "Failed to reload asset", zap.String("asset_id", id.String()))
		return
	}

	c.JSON(http.StatusOK, dto.MapAssetToDTO(asset))
}

// BurnAsset permanently destroys an asset owned by the caller
func (h *handler) BurnAsset(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := assetIDParam(c)
	if !ok {
		return
	}

	if err := h.store.BurnAsset(c.Request.Context(), id, caller); err != nil {
		respondDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateAssetMetadata replaces an asset's name and description
func (h *handler) UpdateAssetMetadata(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := assetIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	err := h.store.UpdateAssetMetadata(c.Request.Context(), store.UpdateMetadataInput{
		AssetID:     id,
		Caller:      caller,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	asset, err := h.store.GetAsset(c.Request.Context(), id)
	if err != nil || asset == nil {
		respondInternalError(c, err, "Failed to reload asset", zap.String("asset_id", id.String()))
		return
	}

	c.JSON(http.StatusOK, dto.MapAssetToDTO(asset))
}

// SetAssetRoyalty replaces an asset's royalty rate
func (h *handler) SetAssetRoyalty(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := assetIDParam(c)
	if !ok {
		return
	}

	var req dto.SetRoyaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	if err := h.store.SetAssetRoyalty(c.Request.Context(), id, req.Rate, caller); err != nil {
		respondDomainError(c, err)
		return
	}

	asset, err := h.store.GetAsset(c.Request.Context(), id)
	if err != nil || asset == nil {
		respondInternalError(c, err, "Failed to reload asset", zap.String("asset_id", id.String()))
		return
	}

	c.JSON(http.StatusOK, dto.MapAssetToDTO(asset))
}

// CreateListing puts an asset owned by the caller up for sale
func (h *handler) CreateListing(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := assetIDParam(c)
	if !ok {
		return
	}

	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	listing, err := h.store.CreateListing(c.Request.Context(), store.CreateListingInput{
		ID:      h.allocator.NextListingID(),
		AssetID: id,
		Price:   req.Price,
		Caller:  caller,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MapListingToDTO(listing))
}

// GetListing retrieves a single sale listing by ID
func (h *handler) GetListing(c *gin.Context) {
	id, ok := listingIDParam(c)
	if !ok {
		return
	}

	listing, err := h.store.GetListing(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "Failed to get listing", zap.String("listing_id", id.String()))
		return
	}
	if listing == nil {
		respondNotFound(c, "Listing not found")
		return
	}

	c.JSON(http.StatusOK, dto.MapListingToDTO(listing))
}

// ListListings retrieves sale listings with optional filters
func (h *handler) ListListings(c *gin.Context) {
	params, err := ParseListListingsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	listings, total, err := h.store.GetListings(c.Request.Context(), store.ListingQueryFilter{
		AssetIDs: params.AssetIDs,
		Sellers:  params.Sellers,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		respondInternalError(c, err, "Failed to list listings")
		return
	}

	response := dto.ListingListResponse{
		Listings: make([]dto.ListingResponse, 0, len(listings)),
		Offset:   &params.Offset,
		Total:    total,
	}
	for i := range listings {
		response.Listings = append(response.Listings, dto.MapListingToDTO(&listings[i]))
	}

	c.JSON(http.StatusOK, response)
}

// PurchaseListing settles a sale listing for the caller
func (h *handler) PurchaseListing(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := listingIDParam(c)
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.store.PurchaseListing(c.Request.Context(), store.PurchaseInput{
		ListingID: id,
		Buyer:     caller,
		Payment:   req.Payment,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PurchaseResponse{
		Asset:          dto.MapAssetToDTO(result.Asset),
		RoyaltyPaid:    result.RoyaltyPaid,
		SellerProceeds: result.SellerProceeds,
	})
}

// CancelListing withdraws a sale listing created by the caller
func (h *handler) CancelListing(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := listingIDParam(c)
	if !ok {
		return
	}

	if err := h.store.CancelListing(c.Request.Context(), id, caller); err != nil {
		respondDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetAccount retrieves a payment account by address
func (h *handler) GetAccount(c *gin.Context) {
	address := c.Param("address")
	if !domain.ValidAddress(address) {
		respondBadRequest(c, "Address is required")
		return
	}

	account, err := h.store.GetAccount(c.Request.Context(), address)
	if err != nil {
		respondInternalError(c, err, "Failed to get account", zap.String("address", address))
		return
	}
	if account == nil {
		respondNotFound(c, "Account not found")
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountToDTO(account))
}

// Deposit credits a payment account
func (h *handler) Deposit(c *gin.Context) {
	address := c.Param("address")
	if !domain.ValidAddress(address) {
		respondBadRequest(c, "Address is required")
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := h.store.Deposit(c.Request.Context(), address, req.Amount); err != nil {
		respondDomainError(c, err)
		return
	}

	account, err := h.store.GetAccount(c.Request.Context(), address)
	if err != nil || account == nil {
		respondInternalError(c, err, "Failed to reload account", zap.String("address", address))
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountToDTO(account))
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
