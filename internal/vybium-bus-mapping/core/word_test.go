package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWordCanonical(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"0", "0"},
		{"00", "0"},
		{"0x0", "0"},
		{"40", "40"},
		{"0x40", "40"},
		{"0X40", "40"},
		{"DeadBeef", "deadbeef"},
		{"000000000000000000000000000000000000000000000000000000000000007f", "7f"},
		{strings.Repeat("f", 64), strings.Repeat("f", 64)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			w, err := ParseWord(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, w.Hex())
		})
	}
}

func TestWordRoundTrip(t *testing.T) {
	for _, canonical := range []string{"0", "1", "ff", "deadbeef", "1" + strings.Repeat("0", 63)} {
		w, err := ParseWord(canonical)
		require.NoError(t, err)
		require.Equal(t, canonical, w.Hex())
	}
}

func TestParseWordMalformed(t *testing.T) {
	for _, in := range []string{"", "0x", "zz", "-1", "+1", "1_0", "0x0x1", " 1", "g"} {
		_, err := ParseWord(in)
		require.Error(t, err, in)
		require.True(t, errors.Is(err, ErrorMalformedNumber), in)
		require.False(t, errors.Is(err, ErrorOverflow), in)
	}
}

func TestParseWordOverflow(t *testing.T) {
	_, err := ParseWord("1" + strings.Repeat("0", 64))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrorOverflow))
	require.True(t, errors.Is(err, ErrorMalformedNumber))

	// leading zeros beyond 64 digits are fine
	w, err := ParseWord(strings.Repeat("0", 80) + "1")
	require.NoError(t, err)
	require.Equal(t, "1", w.Hex())
}

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("0x0080")
	require.NoError(t, err)
	require.Equal(t, "80", a.Hex())
	require.Equal(t, uint64(0x80), a.Uint64())

	big, err := ParseAddress("1" + strings.Repeat("0", 70))
	require.NoError(t, err)
	require.False(t, big.IsUint64())
	require.Equal(t, 1, big.Cmp(a))

	_, err = ParseAddress("xyz")
	require.True(t, errors.Is(err, ErrorMalformedAddress))
	require.False(t, errors.Is(err, ErrorMalformedNumber))

	var zero Address
	require.Equal(t, "0", zero.Hex())
	require.Equal(t, 0, zero.Cmp(AddressFromUint64(0)))
	require.Equal(t, "a0", a.AddUint64(0x20).Hex())
}

func TestWordHelpers(t *testing.T) {
	w := MustParseWord("1234")
	require.Equal(t, "34", w.LowByte().Hex())
	require.True(t, w.Eq(WordFromUint64(0x1234)))
	require.Equal(t, -1, WordFromUint64(1).Cmp(w))
	require.True(t, Word{}.IsZero())

	limbs := MustParseWord("1" + strings.Repeat("0", 8) + "2").Limbs32()
	require.Equal(t, uint32(2), limbs[0])
	require.Equal(t, uint32(0x10), limbs[1])
	require.Equal(t, "1234", AddressFromWord(w).Hex())
}

func TestErrorFormatting(t *testing.T) {
	err := Inconsistency(3, Stack, "1", "40", "41", "stack mismatch")
	require.Contains(t, err.Error(), "trace inconsistency")
	require.Contains(t, err.Error(), "step 3")
	require.Contains(t, err.Error(), "stack key 1")
	require.True(t, errors.Is(err, ErrorTraceInconsistency))

	wrapped := NewError(ErrMalformedNumber, "bad").AtStep(7)
	require.Equal(t, 7, wrapped.Step)
	require.Equal(t, 7, wrapped.AtStep(9).Step)
}
