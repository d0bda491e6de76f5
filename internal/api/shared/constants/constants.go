package constants

const (
	MAX_NAME_LENGTH        = 256
	MAX_DESCRIPTION_LENGTH = 4096
	MAX_PAGE_SIZE          = 100
	DEFAULT_OFFSET         = uint64(0)
	DEFAULT_ASSETS_LIMIT   = 20
	DEFAULT_LISTINGS_LIMIT = 20
	DEFAULT_EVENTS_LIMIT   = 50
)
