//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400 or 404 (or even 204), whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX
// If you notice there's a gap (say, error code 4010, 4011 and 4013 exist, 4012 is missing) DON'T fill in the gap,
// that code was used in the past for some error (not anymore) and shouldn't be reused.
var (
	ErrResourceNotFound       = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody          = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrInvalidProof           = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid proof")}
	ErrMalformedProof         = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed proof or public signals")}
	ErrBindingMismatch        = Error{Code: 40007, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("request does not match proof signals")}
	ErrUnknownRoot            = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("unknown merkle root")}
	ErrNullifierAlreadyUsed   = Error{Code: 40009, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("nullifier already used")}
	ErrStaleRoot              = Error{Code: 40010, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("proof built on a stale root")}
	ErrLeafIndexMismatch      = Error{Code: 40011, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("next leaf index mismatch")}
	ErrMissingBundleTransfer  = Error{Code: 40012, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("required value transfer not found in bundle")}
	ErrMissingBundleMemo      = Error{Code: 40013, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("required authenticity tag not found in bundle")}
	ErrInsufficientVaultFunds = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("insufficient vault balance")}
	ErrMalformedHash          = Error{Code: 40015, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed 32-byte hash")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
)
