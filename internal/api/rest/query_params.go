package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/mintbay/registry/internal/api/shared/constants"
)

// ListAssetsQueryParams holds query parameters for GET /assets
type ListAssetsQueryParams struct {
	// Filters
	Owners        []string `form:"owner"`
	Creators      []string `form:"creator"`
	IncludeBurned bool     `form:"include_burned"`

	// Pagination
	Limit  int    `form:"limit,default=20"`
	Offset uint64 `form:"offset,default=0"`
}

// ListListingsQueryParams holds query parameters for GET /listings
type ListListingsQueryParams struct {
	// Filters
	AssetIDs []string `form:"asset_id"`
	Sellers  []string `form:"seller"`

	// Pagination
	Limit  int    `form:"limit,default=20"`
	Offset uint64 `form:"offset,default=0"`
}

// ListEventsQueryParams holds query parameters for GET /assets/:id/events
type ListEventsQueryParams struct {
	Limit  int    `form:"limit,default=50"`
	Offset uint64 `form:"offset,default=0"`
}

// ParseListAssetsQuery parses query parameters for GET /assets
func ParseListAssetsQuery(c *gin.Context) (*ListAssetsQueryParams, error) {
	var params ListAssetsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	params.Limit = capLimit(params.Limit, constants.DEFAULT_ASSETS_LIMIT)
	return &params, nil
}

// ParseListListingsQuery parses query parameters for GET /listings
func ParseListListingsQuery(c *gin.Context) (*ListListingsQueryParams, error) {
	var params ListListingsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	params.Limit = capLimit(params.Limit, constants.DEFAULT_LISTINGS_LIMIT)
	return &params, nil
}

// ParseListEventsQuery parses query parameters for GET /assets/:id/events
func ParseListEventsQuery(c *gin.Context) (*ListEventsQueryParams, error) {
	var params ListEventsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	params.Limit = capLimit(params.Limit, constants.DEFAULT_EVENTS_LIMIT)
	return &params, nil
}

// capLimit clamps a page size into (0, MAX_PAGE_SIZE]
func capLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > constants.MAX_PAGE_SIZE {
		return constants.MAX_PAGE_SIZE
	}
	return limit
}
