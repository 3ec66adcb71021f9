package points

import "errors"

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrGuildOnly        = errors.New("command can only be used in a server")
	ErrInvalidCatalog   = errors.New("invalid action catalog")
	ErrUnknownAction    = errors.New("unknown action")
)
