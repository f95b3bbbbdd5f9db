package evm

import (
	"errors"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
)

func TestParseInstruction(t *testing.T) {
	ins, err := ParseInstruction("PUSH1 40")
	require.NoError(t, err)
	require.Equal(t, "PUSH1", ins.Entry().Name())
	imm, ok := ins.Immediate()
	require.True(t, ok)
	require.Equal(t, "40", imm.Hex())
	require.Equal(t, uint64(2), ins.Size())
	require.Equal(t, "PUSH1 40", ins.String())

	ins, err = ParseInstruction("  mload ")
	require.NoError(t, err)
	require.Equal(t, "MLOAD", ins.String())
	_, ok = ins.Immediate()
	require.False(t, ok)

	ins, err = ParseInstruction("0x5b")
	require.NoError(t, err)
	require.Equal(t, "JUMPDEST", ins.Entry().Name())

	ins, err = ParseInstruction("PUSH2 0x00ff")
	require.NoError(t, err)
	require.Equal(t, "PUSH2 ff", ins.String())
}

func TestParseInstructionErrors(t *testing.T) {
	cases := []struct {
		text string
		want error
	}{
		{"", core.ErrorMalformedInstruction},
		{"PUSH1 1 2", core.ErrorMalformedInstruction},
		{"PUSH1", core.ErrorMalformedInstruction},
		{"ADD 1", core.ErrorMalformedInstruction},
		{"PUSH1 zz", core.ErrorMalformedNumber},
		{"PUSH1 100", core.ErrorOverflow},
		{"PUSH32 1" + strings.Repeat("0", 64), core.ErrorOverflow},
		{"0x0c", core.ErrorUnknownOpcode},
		{"0x100", core.ErrorUnknownOpcode},
		{"BOGUS", core.ErrorUnknownOpcode},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			_, err := ParseInstruction(tc.text)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func evalHex(t *testing.T, name string, args ...string) string {
	t.Helper()
	e, err := LookupName(name)
	require.NoError(t, err)
	require.NotNil(t, e.Evaluator(), name)
	require.Equal(t, len(args), e.Arity())
	in := make([]*uint256.Int, len(args))
	for i, a := range args {
		in[i] = core.MustParseWord(a).Uint256()
	}
	return core.WordFromUint256(e.Evaluator()(in)).Hex()
}

func TestEvaluators(t *testing.T) {
	ones := strings.Repeat("f", 64)
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"ADD", []string{"1", "2"}, "3"},
		{"ADD", []string{ones, "1"}, "0"},
		{"SUB", []string{"5", "7"}, strings.Repeat("f", 63) + "e"},
		{"DIV", []string{"7", "0"}, "0"},
		{"DIV", []string{"7", "2"}, "3"},
		{"SDIV", []string{ones, "1"}, ones},
		{"MOD", []string{"7", "3"}, "1"},
		{"ADDMOD", []string{"5", "6", "7"}, "4"},
		{"MULMOD", []string{"5", "6", "0"}, "0"},
		{"EXP", []string{"2", "10"}, "400"},
		{"SIGNEXTEND", []string{"0", "ff"}, ones},
		{"LT", []string{"1", "2"}, "1"},
		{"GT", []string{"1", "2"}, "0"},
		{"SLT", []string{ones, "0"}, "1"},
		{"EQ", []string{"a", "a"}, "1"},
		{"ISZERO", []string{"0"}, "1"},
		{"NOT", []string{"0"}, ones},
		{"BYTE", []string{"1f", "abcd"}, "cd"},
		{"BYTE", []string{"20", "abcd"}, "0"},
		{"SHL", []string{"4", "1"}, "10"},
		{"SHL", []string{"100", "1"}, "0"},
		{"SHR", []string{"4", "10"}, "1"},
		{"SAR", []string{"100", ones}, ones},
		{"SAR", []string{"4", "f0"}, "f"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, evalHex(t, tc.name, tc.args...))
		})
	}
}
