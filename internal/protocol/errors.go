package protocol

const (
	// Transport/validation.
	ErrBadRequest = "E_BAD_REQUEST"

	// Credential layer.
	ErrAuth = "E_AUTH"

	// Rule/action layer.
	ErrNoPermission = "E_NO_PERMISSION"
	ErrBlocked      = "E_BLOCKED"
	ErrConflict     = "E_CONFLICT"
	ErrNotFound     = "E_NOT_FOUND"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:   {},
	ErrAuth:         {},
	ErrNoPermission: {},
	ErrBlocked:      {},
	ErrConflict:     {},
	ErrNotFound:     {},
	ErrInternal:     {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
