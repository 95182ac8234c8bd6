package httpserver

const (
	ErrInvalidJSON = "invalid json"
	ErrMissingID   = "missing id"
	ErrNotFound    = "not found"
	ErrStorage     = "storage error"
	ErrStoreBusy   = "store busy"
	ErrBadBody     = "bad request body"
)
