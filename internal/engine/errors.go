package engine

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrNoBids             = errors.New("no bids placed")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNoEmptySlot        = errors.New("no empty slot")
	ErrSupplyExhausted    = errors.New("no items match current filter")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

// ErrorCode maps an engine error to the short code sent to clients.
// Unknown errors map to "internal".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoBids):
		return "no_bids"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrNoEmptySlot):
		return "no_empty_slot"
	case errors.Is(err, ErrSupplyExhausted):
		return "supply_exhausted"
	case errors.Is(err, ErrUnsupportedCommand):
		return "unsupported_command"
	default:
		return "internal"
	}
}
