package zkverifier

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"go.vocdoni.io/dvote/log"

	"github.com/zkpay/shieldpool/types"
)

var (
	// ErrProofInvalid is the only error Verify returns for a proof that
	// fails cryptographic verification. Callers must not learn which
	// internal step rejected it.
	ErrProofInvalid = errors.New("invalid proof")

	ErrProofLength         = errors.New("malformed proof length")
	ErrPublicSignalsLength = errors.New("malformed public signals length")
	ErrVerifyingKeyLength  = errors.New("malformed verifying key length")
	ErrPointDecode         = errors.New("cannot decode curve point")
)

// ProofVerifier checks a serialized proof against its public signals.
type ProofVerifier interface {
	// Verify returns nil for a valid proof. Length errors are reported as
	// such; every cryptographic failure is reported as ErrProofInvalid.
	Verify(proof, publicSignals []byte) error
	// NumPublicInputs is the arity the verifier was built for.
	NumPublicInputs() int
}

// Config selects the wire transformations applied before the pairing check.
// The defaults match proofs produced by the common snark toolchains, which
// serialize points with little-endian limbs, do not pre-negate A and emit G2
// sub-field limbs in the opposite order from the pairing engine.
type Config struct {
	NegateAY   bool
	SwapProofB bool
	SwapVKG2   bool
}

// DefaultConfig returns the transformation set used in production.
func DefaultConfig() Config {
	return Config{NegateAY: true, SwapProofB: true, SwapVKG2: true}
}

// Groth16Verifier verifies Groth16 proofs over BN254 against a verifying key
// parsed once at construction. It is immutable after New and safe for
// concurrent use.
type Groth16Verifier struct {
	vk  *VerifyingKey
	cfg Config
}

// NewGroth16Verifier parses the verifying-key blob and returns a verifier
// bound to it. The public-input arity is derived from the IC table.
func NewGroth16Verifier(vkBlob []byte, cfg Config) (*Groth16Verifier, error) {
	vk, err := ParseVerifyingKey(vkBlob, cfg.SwapVKG2)
	if err != nil {
		return nil, fmt.Errorf("parse verifying key: %w", err)
	}
	return &Groth16Verifier{vk: vk, cfg: cfg}, nil
}

// NumPublicInputs returns the arity derived from the verifying key.
func (v *Groth16Verifier) NumPublicInputs() int {
	return v.vk.NumPublicInputs()
}

// Verify checks the pairing equation
//
//	e(-A, B) * e(alpha, beta) * e(L, gamma) * e(C, delta) == 1
//
// where L = IC[0] + sum(signal_i * IC[i+1]). Proof and signals arrive with
// little-endian limbs and are converted per Config before parsing.
func (v *Groth16Verifier) Verify(proof, publicSignals []byte) error {
	aRaw, bRaw, cRaw, err := DecodeProof(proof)
	if err != nil {
		return err
	}
	signals, err := DecodePublicSignals(publicSignals, v.NumPublicInputs())
	if err != nil {
		return err
	}

	G1ToVerifierForm(&aRaw)
	if v.cfg.NegateAY {
		NegateG1Y(&aRaw)
	}
	G2ToVerifierForm(&bRaw)
	if v.cfg.SwapProofB {
		SwapG2InnerLimbs(&bRaw)
	}
	G1ToVerifierForm(&cRaw)

	var negA, c bn254.G1Affine
	var b bn254.G2Affine
	if err := setG1(&negA, aRaw[:]); err != nil {
		log.Debugw("proof rejected", "reason", err.Error())
		return ErrProofInvalid
	}
	if err := setG2(&b, bRaw[:]); err != nil {
		log.Debugw("proof rejected", "reason", err.Error())
		return ErrProofInvalid
	}
	if err := setG1(&c, cRaw[:]); err != nil {
		log.Debugw("proof rejected", "reason", err.Error())
		return ErrProofInvalid
	}

	l := v.prepareInputs(signals)

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{negA, v.vk.Alpha, l, c},
		[]bn254.G2Affine{b, v.vk.Beta, v.vk.Gamma, v.vk.Delta},
	)
	if err != nil {
		log.Debugw("pairing check failed", "error", err.Error())
		return ErrProofInvalid
	}
	if !ok {
		return ErrProofInvalid
	}
	return nil
}

// prepareInputs folds the public signals into the linear combination
// L = IC[0] + sum(signal_i * IC[i+1]). Signal limbs are interpreted as
// little-endian field elements and reduced modulo the scalar field.
func (v *Groth16Verifier) prepareInputs(signals [][types.BytesField]byte) bn254.G1Affine {
	var acc bn254.G1Jac
	acc.FromAffine(&v.vk.IC[0])
	var s big.Int
	for i := range signals {
		var limb [types.BytesField]byte
		copy(limb[:], signals[i][:])
		FlipLimb(limb[:])
		var e fr.Element
		e.SetBytes(limb[:]) // reduces mod r
		e.BigInt(&s)
		var term bn254.G1Jac
		var termAff bn254.G1Affine
		termAff.ScalarMultiplication(&v.vk.IC[i+1], &s)
		term.FromAffine(&termAff)
		acc.AddAssign(&term)
	}
	var out bn254.G1Affine
	out.FromJacobian(&acc)
	return out
}
