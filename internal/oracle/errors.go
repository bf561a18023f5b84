package oracle

import "errors"

var (
	// ErrInconsistentParamsLength rejects configuration calls whose parallel
	// arrays differ in length. Nothing is applied.
	ErrInconsistentParamsLength = errors.New("oracle: inconsistent params length")

	// ErrCallerNotAuthorized rejects configuration calls failing the
	// authorization predicate. Nothing is applied.
	ErrCallerNotAuthorized = errors.New("oracle: caller not authorized")

	// ErrInsufficientFee rejects update batches whose attached fee is below
	// the provider's quote. Nothing is applied.
	ErrInsufficientFee = errors.New("oracle: insufficient fee")

	// ErrUnsupportedInMode rejects synthetic update construction when the
	// provider enforces genuine verification.
	ErrUnsupportedInMode = errors.New("oracle: unsupported in current provider mode")
)
