package zkverifier

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	qt "github.com/frankban/quicktest"

	"github.com/zkpay/shieldpool/types"
)

func TestDecodeProofOffsets(t *testing.T) {
	c := qt.New(t)

	proof := make([]byte, types.BytesProof)
	for i := range proof {
		proof[i] = byte(i)
	}
	a, b, pc, err := DecodeProof(proof)
	c.Assert(err, qt.IsNil)
	c.Assert(a[:], qt.DeepEquals, proof[0:64])
	c.Assert(b[:], qt.DeepEquals, proof[64:192])
	c.Assert(pc[:], qt.DeepEquals, proof[192:256])

	_, _, _, err = DecodeProof(proof[:255])
	c.Assert(err, qt.ErrorIs, ErrProofLength)
	_, _, _, err = DecodeProof(append(proof, 0))
	c.Assert(err, qt.ErrorIs, ErrProofLength)
}

func TestDecodePublicSignals(t *testing.T) {
	c := qt.New(t)

	blob := make([]byte, 3*types.BytesField)
	for i := range blob {
		blob[i] = byte(i)
	}
	signals, err := DecodePublicSignals(blob, 3)
	c.Assert(err, qt.IsNil)
	c.Assert(signals, qt.HasLen, 3)
	c.Assert(signals[1][:], qt.DeepEquals, blob[32:64])
	c.Assert(EncodePublicSignals(signals), qt.DeepEquals, blob)

	_, err = DecodePublicSignals(blob, 2)
	c.Assert(err, qt.ErrorIs, ErrPublicSignalsLength)
	_, err = DecodePublicSignals(blob[:65], 3)
	c.Assert(err, qt.ErrorIs, ErrPublicSignalsLength)
}

func TestFlipLimbInvolution(t *testing.T) {
	c := qt.New(t)

	limb := make([]byte, 32)
	_, err := rand.Read(limb)
	c.Assert(err, qt.IsNil)
	orig := append([]byte(nil), limb...)

	FlipLimb(limb)
	c.Assert(limb[0], qt.Equals, orig[31])
	FlipLimb(limb)
	c.Assert(limb, qt.DeepEquals, orig)
}

func TestG1ToVerifierFormFlipsLimbsIndependently(t *testing.T) {
	c := qt.New(t)

	var p [types.BytesG1]byte
	for i := range p {
		p[i] = byte(i)
	}
	G1ToVerifierForm(&p)
	// Each 32-byte limb reversed in place, not the whole buffer.
	c.Assert(p[0], qt.Equals, byte(31))
	c.Assert(p[31], qt.Equals, byte(0))
	c.Assert(p[32], qt.Equals, byte(63))
	c.Assert(p[63], qt.Equals, byte(32))
}

func TestSwapG2InnerLimbs(t *testing.T) {
	c := qt.New(t)

	var p [types.BytesG2]byte
	for i := range p {
		p[i] = byte(i)
	}
	orig := p
	SwapG2InnerLimbs(&p)
	c.Assert(p[0:32], qt.DeepEquals, orig[32:64])
	c.Assert(p[32:64], qt.DeepEquals, orig[0:32])
	c.Assert(p[64:96], qt.DeepEquals, orig[96:128])
	c.Assert(p[96:128], qt.DeepEquals, orig[64:96])
	SwapG2InnerLimbs(&p)
	c.Assert(p, qt.Equals, orig)
}

// TestNegateG1YMatchesField cross-checks the limb-wise y := p - y subtraction
// against the field arithmetic of gnark-crypto on random curve points.
func TestNegateG1YMatchesField(t *testing.T) {
	c := qt.New(t)

	_, _, g1Gen, _ := bn254.Generators()
	for i := 0; i < 16; i++ {
		k, err := rand.Int(rand.Reader, fp.Modulus())
		c.Assert(err, qt.IsNil)
		var p bn254.G1Affine
		p.ScalarMultiplication(&g1Gen, k)

		raw := p.RawBytes()
		NegateG1Y(&raw)

		var want bn254.G1Affine
		want.Neg(&p)
		wantRaw := want.RawBytes()
		c.Assert(raw, qt.Equals, wantRaw)
	}
}

func TestNegateG1YZeroFixedPoint(t *testing.T) {
	c := qt.New(t)

	var p [types.BytesG1]byte
	copy(p[:32], bytes.Repeat([]byte{0xaa}, 32))
	orig := p
	NegateG1Y(&p)
	c.Assert(p, qt.Equals, orig)
}

func TestNegateG1YInvolution(t *testing.T) {
	c := qt.New(t)

	var p [types.BytesG1]byte
	y := new(big.Int).Sub(fp.Modulus(), big.NewInt(12345))
	y.FillBytes(p[32:])
	orig := p
	NegateG1Y(&p)
	c.Assert(p, qt.Not(qt.Equals), orig)
	NegateG1Y(&p)
	c.Assert(p, qt.Equals, orig)
}
