package operation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/trace"
)

type mem = map[string]string

func step(opcode string, pc uint64, stack []string, memory mem) trace.RawStep {
	return trace.RawStep{Opcode: opcode, PC: pc, Stack: stack, Memory: memory}
}

func ingest(t *testing.T, raw ...trace.RawStep) []trace.ExecutionStep {
	t.Helper()
	steps, err := trace.Ingest(raw)
	require.NoError(t, err)
	return steps
}

func derive(t *testing.T, raw ...trace.RawStep) []Operation {
	t.Helper()
	ops, err := Derive(ingest(t, raw...), DefaultOptions())
	require.NoError(t, err)
	return ops
}

func deriveErr(t *testing.T, raw ...trace.RawStep) *core.Error {
	t.Helper()
	ops, err := Derive(ingest(t, raw...), DefaultOptions())
	require.Error(t, err)
	require.Nil(t, ops)
	require.True(t, errors.Is(err, core.ErrorTraceInconsistency), "got %v", err)
	var e *core.Error
	require.True(t, errors.As(err, &e))
	return e
}

func requireOp(t *testing.T, op Operation, target core.Target, rw core.RW, key, value string) {
	t.Helper()
	require.Equal(t, target, op.Target(), op.String())
	require.Equal(t, rw, op.RW(), op.String())
	require.Equal(t, key, op.KeyHex(), op.String())
	require.Equal(t, value, op.Value().Hex(), op.String())
}

func requireSequential(t *testing.T, ops []Operation) {
	t.Helper()
	for i, op := range ops {
		require.Equal(t, core.SequenceNumber(i), op.Seq())
		if i > 0 {
			require.LessOrEqual(t, ops[i-1].Step(), op.Step())
		}
	}
}

func TestDeriveJumpdestOnly(t *testing.T) {
	ops := derive(t, step("JUMPDEST", 53, []string{}, mem{}))
	require.Empty(t, ops)
}

func TestDerivePushThenMload(t *testing.T) {
	ops := derive(t,
		step("PUSH1 40", 0, []string{"40"}, mem{}),
		step("MLOAD", 2, []string{"0"}, mem{}),
	)
	require.Len(t, ops, 4)
	requireSequential(t, ops)
	requireOp(t, ops[0], core.Stack, core.Write, "0", "40")
	requireOp(t, ops[1], core.Stack, core.Read, "0", "40")
	requireOp(t, ops[2], core.Memory, core.Read, "40", "0")
	requireOp(t, ops[3], core.Stack, core.Write, "0", "0")
	require.Equal(t, 0, ops[0].Step())
	require.Equal(t, 1, ops[3].Step())
}

func TestDeriveMstoreThenMload(t *testing.T) {
	stored := mem{"80": "deadbeef"}
	ops := derive(t,
		step("PUSH4 deadbeef", 0, []string{"deadbeef"}, mem{}),
		step("PUSH1 80", 5, []string{"deadbeef", "80"}, mem{}),
		step("MSTORE", 7, []string{}, stored),
		step("PUSH1 80", 8, []string{"80"}, stored),
		step("MLOAD", 10, []string{"deadbeef"}, stored),
	)
	requireSequential(t, ops)

	var memOps []Operation
	for _, op := range ops {
		if op.Target() == core.Memory {
			memOps = append(memOps, op)
		}
	}
	require.Len(t, memOps, 2)
	requireOp(t, memOps[0], core.Memory, core.Write, "80", "deadbeef")
	requireOp(t, memOps[1], core.Memory, core.Read, "80", "deadbeef")
}

func TestDeriveAddPoppingThree(t *testing.T) {
	e := deriveErr(t,
		step("PUSH1 1", 0, []string{"1"}, nil),
		step("PUSH1 2", 2, []string{"1", "2"}, nil),
		step("PUSH1 3", 4, []string{"1", "2", "3"}, nil),
		step("ADD", 6, []string{"6"}, nil),
	)
	require.Equal(t, 3, e.Step)
	require.Equal(t, core.Stack, e.Target)
}

func TestDeriveSemanticMismatches(t *testing.T) {
	t.Run("push value differs from immediate", func(t *testing.T) {
		e := deriveErr(t, step("PUSH1 40", 0, []string{"41"}, nil))
		require.Equal(t, 0, e.Step)
		require.Equal(t, "40", e.Expected)
		require.Equal(t, "41", e.Observed)
	})
	t.Run("wrong arithmetic result", func(t *testing.T) {
		e := deriveErr(t,
			step("PUSH1 1", 0, []string{"1"}, nil),
			step("PUSH1 2", 2, []string{"1", "2"}, nil),
			step("ADD", 4, []string{"4"}, nil),
		)
		require.Equal(t, 2, e.Step)
		require.Equal(t, "0", e.Key)
		require.Equal(t, "3", e.Expected)
	})
	t.Run("untouched slot changes", func(t *testing.T) {
		e := deriveErr(t,
			step("PUSH1 1", 0, []string{"1"}, nil),
			step("PUSH1 2", 2, []string{"5", "2"}, nil),
		)
		require.Equal(t, 1, e.Step)
		require.Equal(t, "0", e.Key)
	})
	t.Run("memory changes without a store", func(t *testing.T) {
		e := deriveErr(t, step("JUMPDEST", 0, nil, mem{"20": "1"}))
		require.Equal(t, core.Memory, e.Target)
		require.Equal(t, "20", e.Key)
	})
	t.Run("stack underflow", func(t *testing.T) {
		e := deriveErr(t, step("POP", 0, nil, nil))
		require.Equal(t, core.Stack, e.Target)
	})
	t.Run("mstore8 keeps only the low byte", func(t *testing.T) {
		e := deriveErr(t,
			step("PUSH2 1234", 0, []string{"1234"}, nil),
			step("PUSH1 0", 3, []string{"1234", "0"}, nil),
			step("MSTORE8", 5, nil, mem{"0": "1234"}),
		)
		require.Equal(t, "34", e.Expected)
	})
}

func TestDeriveDupSwap(t *testing.T) {
	ops := derive(t,
		step("PUSH1 1", 0, []string{"1"}, nil),
		step("PUSH1 2", 2, []string{"1", "2"}, nil),
		step("DUP2", 4, []string{"1", "2", "1"}, nil),
		step("SWAP2", 5, []string{"1", "2", "1"}, nil),
		step("SWAP1", 6, []string{"1", "1", "2"}, nil),
	)
	requireSequential(t, ops)
	// DUP2 peeks slot 0 and pushes into slot 2
	requireOp(t, ops[2], core.Stack, core.Read, "0", "1")
	requireOp(t, ops[3], core.Stack, core.Write, "2", "1")
	// SWAP1 on [1 2 1]: peek 2, peek 1, poke 2, poke 1
	swap := ops[len(ops)-4:]
	requireOp(t, swap[0], core.Stack, core.Read, "2", "1")
	requireOp(t, swap[1], core.Stack, core.Read, "1", "2")
	requireOp(t, swap[2], core.Stack, core.Write, "2", "2")
	requireOp(t, swap[3], core.Stack, core.Write, "1", "1")
}

func TestDeriveStorageRoundTrip(t *testing.T) {
	ops := derive(t,
		step("PUSH1 7", 0, []string{"7"}, nil),
		step("PUSH1 1", 2, []string{"7", "1"}, nil),
		step("SSTORE", 4, nil, nil),
		step("PUSH1 1", 5, []string{"1"}, nil),
		step("SLOAD", 7, []string{"7"}, nil),
	)
	var storage []Operation
	for _, op := range ops {
		if op.Target() == core.Storage {
			storage = append(storage, op)
		}
	}
	require.Len(t, storage, 2)
	requireOp(t, storage[0], core.Storage, core.Write, "1", "7")
	requireOp(t, storage[1], core.Storage, core.Read, "1", "7")
}

func TestDeriveStorageSnapshot(t *testing.T) {
	raw := []trace.RawStep{
		step("PUSH1 7", 0, []string{"7"}, nil),
		step("PUSH1 1", 2, []string{"7", "1"}, nil),
		step("SSTORE", 4, nil, nil),
	}
	raw[2].Storage = mem{"1": "7"}
	derive(t, raw...)

	raw[2].Storage = mem{"1": "7", "2": "9"}
	e := deriveErr(t, raw...)
	require.Equal(t, core.Storage, e.Target)
	require.Equal(t, "2", e.Key)
}

func TestDeriveRangeAccess(t *testing.T) {
	ops := derive(t,
		step("PUSH1 21", 0, []string{"21"}, nil),
		step("PUSH1 0", 2, []string{"21", "0"}, nil),
		step("KECCAK256", 4, []string{"abc"}, nil),
	)
	// 0x21 bytes span two words
	tail := ops[len(ops)-5:]
	requireOp(t, tail[2], core.Memory, core.Read, "0", "0")
	requireOp(t, tail[3], core.Memory, core.Read, "20", "0")
	requireOp(t, tail[4], core.Stack, core.Write, "0", "abc")

	steps := ingest(t,
		step("PUSH3 ffffff", 0, []string{"ffffff"}, nil),
		step("PUSH1 0", 4, []string{"ffffff", "0"}, nil),
		step("KECCAK256", 6, []string{"abc"}, nil),
	)
	_, err := Derive(steps, Options{CheckProgramCounter: true, MaxRangeBytes: 1024})
	require.True(t, errors.Is(err, core.ErrorTraceInconsistency))
}

func TestDeriveProgramCounter(t *testing.T) {
	t.Run("fallthrough", func(t *testing.T) {
		e := deriveErr(t,
			step("PUSH1 40", 0, []string{"40"}, nil),
			step("MLOAD", 3, []string{"0"}, nil),
		)
		require.Equal(t, 1, e.Step)
	})
	t.Run("jump", func(t *testing.T) {
		derive(t,
			step("PUSH1 5", 0, []string{"5"}, nil),
			step("JUMP", 2, nil, nil),
			step("JUMPDEST", 5, nil, nil),
		)
		deriveErr(t,
			step("PUSH1 5", 0, []string{"5"}, nil),
			step("JUMP", 2, nil, nil),
			step("JUMPDEST", 6, nil, nil),
		)
		e := deriveErr(t,
			step("PUSH1 5", 0, []string{"5"}, nil),
			step("JUMP", 2, nil, nil),
			step("STOP", 5, nil, nil),
		)
		require.Equal(t, "JUMPDEST", e.Expected)
	})
	t.Run("conditional jump not taken", func(t *testing.T) {
		derive(t,
			step("PUSH1 0", 0, []string{"0"}, nil),
			step("PUSH1 9", 2, []string{"0", "9"}, nil),
			step("JUMPI", 4, nil, nil),
			step("STOP", 5, nil, nil),
		)
	})
	t.Run("disabled", func(t *testing.T) {
		steps := ingest(t,
			step("PUSH1 40", 0, []string{"40"}, nil),
			step("MLOAD", 3, []string{"0"}, nil),
		)
		_, err := Derive(steps, Options{})
		require.NoError(t, err)
	})
}

func TestDeriveIndependentRuns(t *testing.T) {
	steps := ingest(t,
		step("PUSH1 40", 0, []string{"40"}, nil),
		step("MLOAD", 2, []string{"0"}, nil),
	)
	first, err := Derive(steps, DefaultOptions())
	require.NoError(t, err)
	second, err := Derive(steps, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, first, second)
}
