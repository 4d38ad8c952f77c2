// Package zkverifier implements the Groth16/BN254 proof verification adapter.
// Proofs and public signals arrive with little-endian 32-byte limbs; verifying
// keys are stored with big-endian limbs. The codec in this file converts
// between the wire layout and the form the pairing engine expects: per-limb
// endianness flips, G1 y-coordinate negation and the optional swap of the two
// sub-field coordinates of a G2 point.
package zkverifier

import (
	"fmt"

	"github.com/zkpay/shieldpool/types"
)

// Proof offsets within the 256-byte wire encoding.
const (
	proofOffsetA = 0
	proofOffsetB = types.BytesG1
	proofOffsetC = types.BytesG1 + types.BytesG2
)

// fqModulusBE is the BN254 base-field modulus p as a big-endian 32-byte
// constant, used for the limb-wise y := p - y negation.
var fqModulusBE = [32]byte{
	0x30, 0x64, 0x4e, 0x72, 0xe1, 0x31, 0xa0, 0x29, 0xb8, 0x50, 0x45, 0xb6, 0x81, 0x81, 0x58, 0x5d,
	0x97, 0x81, 0x6a, 0x91, 0x68, 0x71, 0xca, 0x8d, 0x3c, 0x20, 0x8c, 0x16, 0xd8, 0x7c, 0xfd, 0x47,
}

// DecodeProof splits a 256-byte wire proof into its A (G1), B (G2) and C (G1)
// components at fixed offsets. No validation is performed beyond the length.
func DecodeProof(proof []byte) (a [types.BytesG1]byte, b [types.BytesG2]byte, c [types.BytesG1]byte, err error) {
	if len(proof) != types.BytesProof {
		err = fmt.Errorf("%w: got %d bytes, want %d", ErrProofLength, len(proof), types.BytesProof)
		return
	}
	copy(a[:], proof[proofOffsetA:proofOffsetB])
	copy(b[:], proof[proofOffsetB:proofOffsetC])
	copy(c[:], proof[proofOffsetC:])
	return
}

// DecodePublicSignals splits a little-endian public-signal blob into n 32-byte
// field elements. The blob length must be exactly 32*n.
func DecodePublicSignals(data []byte, n int) ([][types.BytesField]byte, error) {
	if len(data) != n*types.BytesField {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrPublicSignalsLength, len(data), n*types.BytesField)
	}
	out := make([][types.BytesField]byte, n)
	for i := 0; i < n; i++ {
		copy(out[i][:], data[i*types.BytesField:(i+1)*types.BytesField])
	}
	return out, nil
}

// EncodePublicSignals is the inverse of DecodePublicSignals.
func EncodePublicSignals(signals [][types.BytesField]byte) []byte {
	out := make([]byte, 0, len(signals)*types.BytesField)
	for i := range signals {
		out = append(out, signals[i][:]...)
	}
	return out
}

// FlipLimb reverses a single 32-byte limb in place, converting between the
// little-endian wire form and the big-endian verifier form.
func FlipLimb(limb []byte) {
	for i, j := 0, len(limb)-1; i < j; i, j = i+1, j-1 {
		limb[i], limb[j] = limb[j], limb[i]
	}
}

// G1ToVerifierForm flips each of the two 32-byte limbs (x, y) of a G1 point
// independently. The whole point is never reversed as one buffer.
func G1ToVerifierForm(p *[types.BytesG1]byte) {
	FlipLimb(p[:32])
	FlipLimb(p[32:])
}

// G2ToVerifierForm flips each of the four 32-byte limbs of a G2 point
// independently.
func G2ToVerifierForm(p *[types.BytesG2]byte) {
	FlipLimb(p[:32])
	FlipLimb(p[32:64])
	FlipLimb(p[64:96])
	FlipLimb(p[96:])
}

// NegateG1Y replaces the big-endian y limb of a G1 point with p - y, using
// limb-wise subtraction with borrow. A zero y is kept as-is: there is no -0
// in this representation.
func NegateG1Y(p *[types.BytesG1]byte) {
	y := p[32:]
	zero := true
	for _, v := range y {
		if v != 0 {
			zero = false
			break
		}
	}
	if zero {
		return
	}
	borrow := 0
	for i := 31; i >= 0; i-- {
		diff := int(fqModulusBE[i]) - int(y[i]) - borrow
		if diff < 0 {
			diff += 256
			borrow = 1
		} else {
			borrow = 0
		}
		y[i] = byte(diff)
	}
}

// SwapG2InnerLimbs exchanges the two sub-field coordinates (c0, c1) of each
// Fp2 coordinate of a G2 point: bytes [0..32)<->[32..64) and
// [64..96)<->[96..128). Some key-generation toolchains emit the coordinates
// in the opposite order from what the pairing engine expects.
func SwapG2InnerLimbs(p *[types.BytesG2]byte) {
	var tmp [32]byte
	copy(tmp[:], p[0:32])
	copy(p[0:32], p[32:64])
	copy(p[32:64], tmp[:])
	copy(tmp[:], p[64:96])
	copy(p[64:96], p[96:128])
	copy(p[96:128], tmp[:])
}
