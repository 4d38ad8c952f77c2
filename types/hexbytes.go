package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HexBytes is a []byte which encodes as hexadecimal in JSON. The "0x" prefix
// is accepted on input and never produced on output.
type HexBytes []byte

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

// SetString decodes a hex string, with or without the "0x" prefix.
func (b *HexBytes) SetString(s string) error {
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	dec, err := hexutil.Decode(s)
	if err != nil {
		return err
	}
	*b = dec
	return nil
}

func (b HexBytes) MarshalJSON() ([]byte, error) {
	enc := make([]byte, hex.EncodedLen(len(b))+2)
	enc[0] = '"'
	hex.Encode(enc[1:], b)
	enc[len(enc)-1] = '"'
	return enc, nil
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid JSON string: %q", data)
	}
	return b.SetString(string(data[1 : len(data)-1]))
}

// Hash32 copies b into a fixed 32-byte array, failing on length mismatch.
func (b HexBytes) Hash32() ([HashLen]byte, error) {
	var out [HashLen]byte
	if len(b) != HashLen {
		return out, fmt.Errorf("expected %d bytes, got %d", HashLen, len(b))
	}
	copy(out[:], b)
	return out, nil
}
