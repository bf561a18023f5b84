package api

import (
	"errors"
	"net/http"

	"PriceGate/internal/oracle"
	"PriceGate/internal/provider"
	xhttp "PriceGate/pkg/http"
)

// oracleAppError maps oracle sentinel errors to transport errors. Unknown
// errors pass through and render as 500.
func oracleAppError(err error) error {
	switch {
	case errors.Is(err, oracle.ErrCallerNotAuthorized):
		return xhttp.NewAppError("ERR_CALLER_NOT_AUTHORIZED", "", err.Error(), http.StatusForbidden).WithError(err)
	case errors.Is(err, oracle.ErrInconsistentParamsLength):
		return xhttp.NewAppError("ERR_INCONSISTENT_PARAMS_LENGTH", "", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, oracle.ErrInsufficientFee):
		return xhttp.NewAppError("ERR_INSUFFICIENT_FEE", "", err.Error(), http.StatusPaymentRequired).WithError(err)
	case errors.Is(err, oracle.ErrUnsupportedInMode):
		return xhttp.NewAppError("ERR_UNSUPPORTED_IN_MODE", "", err.Error(), http.StatusConflict).WithError(err)
	case errors.Is(err, provider.ErrBadPayload), errors.Is(err, provider.ErrBadSignature):
		return xhttp.NewAppError("ERR_BAD_PAYLOAD", "", err.Error(), http.StatusBadRequest).WithError(err)
	default:
		return err
	}
}
