// Package trace turns raw per-instruction snapshots into canonical,
// immutable execution steps.
package trace

import (
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/evm"
)

// RawStep is one trace element as emitted by a tracer: the machine state
// after the instruction at PC executed. Stack is bottom first, top last.
type RawStep struct {
	Memory  map[string]string `json:"memory"`
	Stack   []string          `json:"stack"`
	Opcode  string            `json:"opcode"`
	PC      uint64            `json:"pc"`
	Storage map[string]string `json:"storage,omitempty"`
}

// ExecutionStep is a decoded machine snapshot. It is immutable; accessors
// return copies or persistent snapshots.
type ExecutionStep struct {
	seq         core.SequenceNumber
	pc          core.ProgramCounter
	instruction evm.Instruction
	stack       []core.Word
	memory      core.MemorySnapshot
	storage     core.StorageSnapshot
	hasStorage  bool
}

// NewExecutionStep assembles a step from decoded parts. The stack slice is copied.
func NewExecutionStep(
	seq core.SequenceNumber,
	pc core.ProgramCounter,
	instruction evm.Instruction,
	stack []core.Word,
	memory core.MemorySnapshot,
) ExecutionStep {
	return ExecutionStep{
		seq:         seq,
		pc:          pc,
		instruction: instruction,
		stack:       append([]core.Word(nil), stack...),
		memory:      memory,
	}
}

// WithStorage returns a copy of s carrying an observed storage snapshot
func (s ExecutionStep) WithStorage(storage core.StorageSnapshot) ExecutionStep {
	s.storage = storage
	s.hasStorage = true
	return s
}

// Seq returns the step's sequence number
func (s ExecutionStep) Seq() core.SequenceNumber { return s.seq }

// PC returns the address of the executed instruction
func (s ExecutionStep) PC() core.ProgramCounter { return s.pc }

// Instruction returns the executed instruction
func (s ExecutionStep) Instruction() evm.Instruction { return s.instruction }

// Stack returns a copy of the stack, bottom first
func (s ExecutionStep) Stack() []core.Word {
	return append([]core.Word(nil), s.stack...)
}

// StackLen returns the stack depth
func (s ExecutionStep) StackLen() int { return len(s.stack) }

// StackAt returns the slot at position i from the bottom
func (s ExecutionStep) StackAt(i int) (core.Word, bool) {
	if i < 0 || i >= len(s.stack) {
		return core.Word{}, false
	}
	return s.stack[i], true
}

// Memory returns the memory snapshot
func (s ExecutionStep) Memory() core.MemorySnapshot { return s.memory }

// Storage returns the observed storage snapshot, if the trace carried one
func (s ExecutionStep) Storage() (core.StorageSnapshot, bool) { return s.storage, s.hasStorage }
