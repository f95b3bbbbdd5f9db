package operation

import (
	"strconv"

	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/evm"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/trace"
)

// checkFlow verifies that next.PC is where cur's control flow leads.
// Halting and context-switching instructions are not followed.
func checkFlow(index int, cur, next *trace.ExecutionStep, operands []core.Word) error {
	entry := cur.Instruction().Entry()
	fallthroughPC := uint64(cur.PC()) + cur.Instruction().Size()

	var want uint64
	switch entry.Flow() {
	case evm.Halt, evm.Call:
		return nil
	case evm.Next:
		want = fallthroughPC
	case evm.Jump:
		return checkJump(index, next, operands[0])
	case evm.JumpIf:
		if !operands[1].IsZero() {
			return checkJump(index, next, operands[0])
		}
		want = fallthroughPC
	}

	if uint64(next.PC()) != want {
		return pcMismatch(index+1, hexPC(want), next, "program counter does not follow %s", entry.Name())
	}
	return nil
}

func checkJump(index int, next *trace.ExecutionStep, dest core.Word) error {
	if !dest.IsUint64() || dest.Uint64() != uint64(next.PC()) {
		return pcMismatch(index+1, "0x"+dest.Hex(), next, "jump lands elsewhere")
	}
	if next.Instruction().Opcode() != vm.JUMPDEST {
		return core.Inconsistency(index+1, core.Stack, "", "JUMPDEST", next.Instruction().String(),
			"jump target is not a JUMPDEST")
	}
	return nil
}

func pcMismatch(index int, want string, next *trace.ExecutionStep, format string, args ...any) error {
	return core.Inconsistency(index, core.Stack, "", "pc "+want,
		"pc "+hexPC(uint64(next.PC())), format, args...)
}

func hexPC(pc uint64) string {
	return "0x" + strconv.FormatUint(pc, 16)
}
