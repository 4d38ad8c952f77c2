package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.vocdoni.io/dvote/log"

	"github.com/zkpay/shieldpool/bundle"
	"github.com/zkpay/shieldpool/engine"
	"github.com/zkpay/shieldpool/state"
	"github.com/zkpay/shieldpool/zkverifier"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// engineError maps engine and state errors to their API representation. The
// opaque proof-verification error intentionally carries no detail.
func engineError(err error) Error {
	switch {
	case errors.Is(err, zkverifier.ErrProofInvalid):
		return ErrInvalidProof
	case errors.Is(err, zkverifier.ErrProofLength),
		errors.Is(err, zkverifier.ErrPublicSignalsLength):
		return ErrMalformedProof.WithErr(err)
	case errors.Is(err, engine.ErrBindingMismatch),
		errors.Is(err, engine.ErrSignalRange):
		return ErrBindingMismatch.WithErr(err)
	case errors.Is(err, engine.ErrUnknownCircuit):
		return ErrResourceNotFound.WithErr(err)
	case errors.Is(err, state.ErrOldRootMismatch):
		return ErrStaleRoot.WithErr(err)
	case errors.Is(err, state.ErrLeafIndexMismatch):
		return ErrLeafIndexMismatch.WithErr(err)
	case errors.Is(err, state.ErrUnknownRoot):
		return ErrUnknownRoot.WithErr(err)
	case errors.Is(err, state.ErrNullifierUsed):
		return ErrNullifierAlreadyUsed.WithErr(err)
	case errors.Is(err, state.ErrInsufficientFunds):
		return ErrInsufficientVaultFunds.WithErr(err)
	case errors.Is(err, bundle.ErrTransferNotFound):
		return ErrMissingBundleTransfer.WithErr(err)
	case errors.Is(err, bundle.ErrMemoNotFound),
		errors.Is(err, bundle.ErrIndexOutOfRange):
		return ErrMissingBundleMemo.WithErr(err)
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}
