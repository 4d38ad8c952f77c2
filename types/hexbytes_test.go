package types

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	qt "github.com/frankban/quicktest"
)

func TestHexBytesSetString(t *testing.T) {
	c := qt.New(t)

	var b HexBytes
	c.Assert(b.SetString("0xdeadbeef"), qt.IsNil)
	c.Assert(b.String(), qt.Equals, "deadbeef")
	c.Assert(b.SetString("cafe"), qt.IsNil)
	c.Assert(b.String(), qt.Equals, "cafe")
	c.Assert(b.SetString("zz"), qt.IsNotNil)
	c.Assert(b.SetString("abc"), qt.ErrorIs, hexutil.ErrOddLength)
}

func TestHexBytesJSON(t *testing.T) {
	c := qt.New(t)

	in := HexBytes{0x01, 0xff}
	data, err := json.Marshal(in)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"01ff"`)

	var out HexBytes
	c.Assert(json.Unmarshal([]byte(`"0x01ff"`), &out), qt.IsNil)
	c.Assert(out, qt.DeepEquals, in)
	c.Assert(json.Unmarshal([]byte(`42`), &out), qt.IsNotNil)
}

func TestHash32(t *testing.T) {
	c := qt.New(t)

	h, err := HexBytes(make([]byte, HashLen)).Hash32()
	c.Assert(err, qt.IsNil)
	c.Assert(h, qt.Equals, [HashLen]byte{})

	_, err = HexBytes{1, 2, 3}.Hash32()
	c.Assert(err, qt.IsNotNil)
}
