package core

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Word is an unsigned 256-bit EVM value. The zero value is 0.
type Word struct {
	v uint256.Int
}

// Address is an unbounded non-negative memory address. The zero value is 0.
// Addresses are immutable; arithmetic returns new values.
type Address struct {
	v *big.Int
}

var bigZero = new(big.Int)

// parseHex validates and decodes hexadecimal text with an optional 0x prefix.
func parseHex(text string) (*big.Int, bool) {
	digits := text
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	if digits == "" {
		return nil, false
	}
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return nil, false
		}
	}
	n, ok := new(big.Int).SetString(digits, 16)
	return n, ok
}

// ParseWord decodes hexadecimal text into a Word. Leading zeros and either
// letter case are accepted.
func ParseWord(text string) (Word, error) {
	n, ok := parseHex(text)
	if !ok {
		return Word{}, NewError(ErrMalformedNumber, "invalid hexadecimal word %q", text)
	}
	v, overflow := uint256.FromBig(n)
	if overflow {
		return Word{}, NewError(ErrOverflow, "word %q exceeds 256 bits", text)
	}
	return Word{v: *v}, nil
}

// MustParseWord is ParseWord for literals; it panics on error.
func MustParseWord(text string) Word {
	w, err := ParseWord(text)
	if err != nil {
		panic(err)
	}
	return w
}

// WordFromUint64 returns n as a Word
func WordFromUint64(n uint64) Word {
	var w Word
	w.v.SetUint64(n)
	return w
}

// WordFromUint256 copies v into a Word
func WordFromUint256(v *uint256.Int) Word {
	return Word{v: *v}
}

// Uint256 returns a fresh copy of the underlying integer
func (w Word) Uint256() *uint256.Int {
	return w.v.Clone()
}

// Hex returns the canonical encoding: lowercase, no prefix, no leading
// zeros, "0" for zero.
func (w Word) Hex() string {
	return strings.TrimPrefix(w.v.Hex(), "0x")
}

func (w Word) String() string {
	return w.Hex()
}

// IsZero reports whether w is 0
func (w Word) IsZero() bool {
	return w.v.IsZero()
}

// Eq reports whether w and o are the same value
func (w Word) Eq(o Word) bool {
	return w.v.Eq(&o.v)
}

// Cmp compares w and o as unsigned integers
func (w Word) Cmp(o Word) int {
	return w.v.Cmp(&o.v)
}

// IsUint64 reports whether w fits in 64 bits
func (w Word) IsUint64() bool {
	return w.v.IsUint64()
}

// Uint64 returns the low 64 bits of w
func (w Word) Uint64() uint64 {
	return w.v.Uint64()
}

// LowByte returns w truncated to its least significant byte
func (w Word) LowByte() Word {
	return WordFromUint64(w.v.Uint64() & 0xff)
}

// Limbs32 returns w as eight 32-bit limbs, least significant first.
func (w Word) Limbs32() [8]uint32 {
	var out [8]uint32
	for i, limb := range w.v {
		out[2*i] = uint32(limb)
		out[2*i+1] = uint32(limb >> 32)
	}
	return out
}

// ParseAddress decodes hexadecimal text into an Address
func ParseAddress(text string) (Address, error) {
	n, ok := parseHex(text)
	if !ok {
		return Address{}, NewError(ErrMalformedAddress, "invalid hexadecimal address %q", text)
	}
	return Address{v: n}, nil
}

// MustParseAddress is ParseAddress for literals; it panics on error.
func MustParseAddress(text string) Address {
	a, err := ParseAddress(text)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromUint64 returns n as an Address
func AddressFromUint64(n uint64) Address {
	return Address{v: new(big.Int).SetUint64(n)}
}

// AddressFromWord interprets a stack word as a memory address
func AddressFromWord(w Word) Address {
	return Address{v: w.v.ToBig()}
}

func (a Address) big() *big.Int {
	if a.v == nil {
		return bigZero
	}
	return a.v
}

// AddUint64 returns a + n
func (a Address) AddUint64(n uint64) Address {
	return Address{v: new(big.Int).Add(a.big(), new(big.Int).SetUint64(n))}
}

// Cmp compares two addresses
func (a Address) Cmp(o Address) int {
	return a.big().Cmp(o.big())
}

// IsUint64 reports whether a fits in 64 bits
func (a Address) IsUint64() bool {
	return a.big().IsUint64()
}

// Uint64 returns the low 64 bits of a
func (a Address) Uint64() uint64 {
	return a.big().Uint64()
}

// Bytes returns the big-endian magnitude of a
func (a Address) Bytes() []byte {
	return a.big().Bytes()
}

// Hex returns the canonical encoding of a
func (a Address) Hex() string {
	return a.big().Text(16)
}

func (a Address) String() string {
	return a.Hex()
}
