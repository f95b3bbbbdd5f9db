package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/operation"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/trace"
)

func w(n uint64) core.Word { return core.WordFromUint64(n) }

func addr(n uint64) core.Address { return core.AddressFromUint64(n) }

// mixedStream interleaves domains and keys so grouping has work to do.
func mixedStream() []operation.Operation {
	return []operation.Operation{
		operation.NewStackOp(core.Write, 0, w(0x40), 0, 0),
		operation.NewMemoryOp(core.Write, addr(0x80), w(1), 1, 0),
		operation.NewStackOp(core.Write, 1, w(2), 2, 1),
		operation.NewMemoryOp(core.Read, addr(0x20), w(0), 3, 1),
		operation.NewStorageOp(core.Write, w(9), w(5), 4, 2),
		operation.NewStackOp(core.Read, 1, w(2), 5, 2),
		operation.NewMemoryOp(core.Read, addr(0x80), w(1), 6, 3),
		operation.NewStackOp(core.Read, 0, w(0x40), 7, 3),
		operation.NewStorageOp(core.Read, w(9), w(5), 8, 4),
		operation.NewStorageOp(core.Read, w(3), w(0), 9, 4),
	}
}

func TestBuildGroupsAndOrders(t *testing.T) {
	ops := mixedStream()
	for _, parallelism := range []int{0, 1, 2, 3, 8} {
		ix, err := Build(context.Background(), ops, parallelism)
		require.NoError(t, err)

		require.Equal(t, []core.Slot{0, 1}, ix.Stack().Keys())
		require.Equal(t, 4, ix.Stack().Count())

		memKeys := ix.Memory().Keys()
		require.Len(t, memKeys, 2)
		require.Equal(t, "20", memKeys[0].Hex())
		require.Equal(t, "80", memKeys[1].Hex())

		storageKeys := ix.Storage().Keys()
		require.Equal(t, []string{"3", "9"}, []string{storageKeys[0].Hex(), storageKeys[1].Hex()})

		// Every group is a subsequence of the stream, ordered by seq.
		ix.Stack().Each(func(k core.Slot, group []operation.Operation) bool {
			for i := 1; i < len(group); i++ {
				require.Less(t, group[i-1].Seq(), group[i].Seq())
			}
			for _, op := range group {
				require.Equal(t, ops[op.Seq()], op)
				require.Equal(t, k, op.Slot())
			}
			return true
		})

		slot0 := ix.Stack().Operations(0)
		require.Len(t, slot0, 2)
		require.Equal(t, core.SequenceNumber(0), slot0[0].Seq())
		require.Equal(t, core.SequenceNumber(7), slot0[1].Seq())
		require.Nil(t, ix.Stack().Operations(5))

		rows := ix.Memory().Rows()
		require.Len(t, rows, 3)
		require.Equal(t, "20", rows[0].Address().Hex())

		require.NoError(t, ix.CheckConsistency())
	}
}

func TestBuildRejectsUnorderedStream(t *testing.T) {
	ops := mixedStream()
	ops[3], ops[4] = ops[4], ops[3]
	_, err := Build(context.Background(), ops, 3)
	require.True(t, errors.Is(err, core.ErrorTraceInconsistency))
}

func TestBuildHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, mixedStream(), 3)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildEmpty(t *testing.T) {
	ix, err := Build(context.Background(), nil, 3)
	require.NoError(t, err)
	require.Zero(t, ix.Stack().Len())
	require.Zero(t, ix.Memory().Count())
	require.NoError(t, ix.CheckConsistency())
}

func TestConsistencyViolation(t *testing.T) {
	ops := []operation.Operation{
		operation.NewMemoryOp(core.Write, addr(0x80), w(0xdeadbeef), 0, 0),
		operation.NewMemoryOp(core.Read, addr(0x80), w(0xdeadbee0), 1, 1),
	}
	ix, err := Build(context.Background(), ops, 3)
	require.NoError(t, err)
	err = ix.CheckConsistency()
	require.True(t, errors.Is(err, core.ErrorTraceInconsistency))
	var e *core.Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, core.Memory, e.Target)
	require.Equal(t, "80", e.Key)
	require.Equal(t, "deadbeef", e.Expected)

	// a read with no prior write must be zero
	ix, err = Build(context.Background(), []operation.Operation{
		operation.NewStorageOp(core.Read, w(1), w(1), 0, 0),
	}, 1)
	require.NoError(t, err)
	require.Error(t, ix.CheckConsistency())
}

func TestViewsOverDerivedTrace(t *testing.T) {
	stored := map[string]string{"80": "deadbeef"}
	steps, err := trace.Ingest([]trace.RawStep{
		{Opcode: "PUSH1 40", PC: 0, Stack: []string{"40"}},
		{Opcode: "MLOAD", PC: 2, Stack: []string{"0"}},
		{Opcode: "POP", PC: 3},
		{Opcode: "PUSH4 deadbeef", PC: 4, Stack: []string{"deadbeef"}},
		{Opcode: "PUSH1 80", PC: 9, Stack: []string{"deadbeef", "80"}},
		{Opcode: "MSTORE", PC: 11, Memory: stored},
		{Opcode: "PUSH1 80", PC: 12, Stack: []string{"80"}, Memory: stored},
		{Opcode: "MLOAD", PC: 14, Stack: []string{"deadbeef"}, Memory: stored},
	})
	require.NoError(t, err)
	ops, err := operation.Derive(steps, operation.DefaultOptions())
	require.NoError(t, err)

	ix, err := Build(context.Background(), ops, 3)
	require.NoError(t, err)
	require.NoError(t, ix.CheckConsistency())

	history := ix.Memory().Operations(addr(0x80))
	require.Len(t, history, 2)
	require.Equal(t, core.Write, history[0].RW())
	require.Equal(t, core.Read, history[1].RW())
	require.Equal(t, "deadbeef", history[1].Value().Hex())

	first := ix.Stack().Operations(0)
	require.GreaterOrEqual(t, len(first), 4)
	for i := 1; i < len(first); i++ {
		require.Less(t, first[i-1].Seq(), first[i].Seq())
	}
}
