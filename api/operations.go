package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zkpay/shieldpool/bundle"
	"github.com/zkpay/shieldpool/engine"
	"github.com/zkpay/shieldpool/types"
)

// deposit handles POST /deposits.
func (a *API) deposit(w http.ResponseWriter, r *http.Request) {
	req := &DepositRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	hash, err := req.DepositHash.Hash32()
	if err != nil {
		ErrMalformedHash.WithErr(err).Write(w)
		return
	}
	receipt, err := a.engine.Deposit(&engine.DepositRequest{
		DepositHash:   hash,
		Proof:         req.Proof,
		PublicSignals: req.PublicSignals,
		Bundle:        bundle.Slice(req.Bundle),
	})
	if err != nil {
		engineError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}

// transfer handles POST /transfers.
func (a *API) transfer(w http.ResponseWriter, r *http.Request) {
	req := &SpendRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	nullifier, err := req.Nullifier.Hash32()
	if err != nil {
		ErrMalformedHash.WithErr(err).Write(w)
		return
	}
	receipt, err := a.engine.Transfer(&engine.TransferRequest{
		Nullifier:     nullifier,
		Proof:         req.Proof,
		PublicSignals: req.PublicSignals,
	})
	if err != nil {
		engineError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}

// withdraw handles POST /withdrawals.
func (a *API) withdraw(w http.ResponseWriter, r *http.Request) {
	req := &SpendRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	nullifier, err := req.Nullifier.Hash32()
	if err != nil {
		ErrMalformedHash.WithErr(err).Write(w)
		return
	}
	receipt, err := a.engine.Withdraw(&engine.WithdrawRequest{
		Nullifier:     nullifier,
		Proof:         req.Proof,
		PublicSignals: req.PublicSignals,
	})
	if err != nil {
		engineError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}

// poolInfo handles GET /pool.
func (a *API) poolInfo(w http.ResponseWriter, r *http.Request) {
	ts, err := a.engine.Pool().TreeState()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	roots, err := a.engine.Pool().Roots()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	vault, err := a.engine.VaultBalance()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &PoolInfo{
		Root:          ts.Root,
		NextLeafIndex: ts.NextLeafIndex,
		Depth:         ts.Depth,
		RootHistory:   len(roots),
		VaultBalance:  vault,
		Stats:         a.engine.Stats(),
	})
}

// rootStatus handles GET /roots/{root}.
func (a *API) rootStatus(w http.ResponseWriter, r *http.Request) {
	var root types.HexBytes
	if err := root.SetString(chi.URLParam(r, RootURLParam)); err != nil {
		ErrMalformedHash.WithErr(err).Write(w)
		return
	}
	hash, err := root.Hash32()
	if err != nil {
		ErrMalformedHash.WithErr(err).Write(w)
		return
	}
	known, err := a.engine.Pool().ContainsRoot(hash)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if !known {
		ErrUnknownRoot.Withf("%s", root.String()).Write(w)
		return
	}
	httpWriteJSON(w, &RootStatus{Root: root, Known: true})
}
