package zkverifier

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/zkpay/shieldpool/types"
)

// vkHeaderLen is the fixed prefix of a verifying-key blob: alpha (G1) followed
// by beta, gamma and delta (G2 each). The IC table of G1 points follows.
const vkHeaderLen = types.BytesG1 + 3*types.BytesG2

// VerifyingKey holds the parsed Groth16 verifying key over BN254. IC has one
// entry more than the number of public inputs of the circuit.
type VerifyingKey struct {
	Alpha bn254.G1Affine
	Beta  bn254.G2Affine
	Gamma bn254.G2Affine
	Delta bn254.G2Affine
	IC    []bn254.G1Affine
}

// NumPublicInputs returns the public-input arity the key was generated for.
func (vk *VerifyingKey) NumPublicInputs() int {
	return len(vk.IC) - 1
}

// ParseVerifyingKey decodes a big-endian verifying-key blob laid out as
// alpha_G1 | beta_G2 | gamma_G2 | delta_G2 | IC[0..n]. The blob must carry at
// least one IC entry and a whole number of 64-byte G1 points after the fixed
// header. When swapG2 is set, the two sub-field limbs of every G2 coordinate
// are exchanged before parsing.
func ParseVerifyingKey(blob []byte, swapG2 bool) (*VerifyingKey, error) {
	if len(blob) < vkHeaderLen+types.BytesG1 {
		return nil, fmt.Errorf("%w: got %d bytes, want at least %d", ErrVerifyingKeyLength, len(blob), vkHeaderLen+types.BytesG1)
	}
	if (len(blob)-vkHeaderLen)%types.BytesG1 != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after IC table", ErrVerifyingKeyLength, (len(blob)-vkHeaderLen)%types.BytesG1)
	}

	vk := &VerifyingKey{}
	if err := setG1(&vk.Alpha, blob[:types.BytesG1]); err != nil {
		return nil, fmt.Errorf("alpha: %w", err)
	}
	off := types.BytesG1
	for _, g2 := range []struct {
		name string
		dst  *bn254.G2Affine
	}{
		{"beta", &vk.Beta},
		{"gamma", &vk.Gamma},
		{"delta", &vk.Delta},
	} {
		var buf [types.BytesG2]byte
		copy(buf[:], blob[off:off+types.BytesG2])
		if swapG2 {
			SwapG2InnerLimbs(&buf)
		}
		if err := setG2(g2.dst, buf[:]); err != nil {
			return nil, fmt.Errorf("%s: %w", g2.name, err)
		}
		off += types.BytesG2
	}

	nIC := (len(blob) - off) / types.BytesG1
	vk.IC = make([]bn254.G1Affine, nIC)
	for i := 0; i < nIC; i++ {
		if err := setG1(&vk.IC[i], blob[off:off+types.BytesG1]); err != nil {
			return nil, fmt.Errorf("ic[%d]: %w", i, err)
		}
		off += types.BytesG1
	}
	return vk, nil
}

func setG1(dst *bn254.G1Affine, raw []byte) error {
	if _, err := dst.SetBytes(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrPointDecode, err)
	}
	return nil
}

func setG2(dst *bn254.G2Affine, raw []byte) error {
	if _, err := dst.SetBytes(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrPointDecode, err)
	}
	return nil
}
