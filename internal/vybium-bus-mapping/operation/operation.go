// Package operation replays decoded execution steps against the opcode
// table and emits the globally ordered log of stack, memory and storage
// accesses.
package operation

import (
	"fmt"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
)

// Operation is one read or write against a single domain key. The key is a
// stack slot, a memory address or a storage key depending on Target.
type Operation struct {
	target core.Target
	rw     core.RW
	seq    core.SequenceNumber
	step   int
	value  core.Word

	slot       core.Slot
	address    core.Address
	storageKey core.Word
}

// NewStackOp creates a stack operation at a slot counted from the bottom
func NewStackOp(rw core.RW, slot core.Slot, value core.Word, seq core.SequenceNumber, step int) Operation {
	return Operation{target: core.Stack, rw: rw, slot: slot, value: value, seq: seq, step: step}
}

// NewMemoryOp creates a memory operation
func NewMemoryOp(rw core.RW, address core.Address, value core.Word, seq core.SequenceNumber, step int) Operation {
	return Operation{target: core.Memory, rw: rw, address: address, value: value, seq: seq, step: step}
}

// NewStorageOp creates a storage operation
func NewStorageOp(rw core.RW, key core.Word, value core.Word, seq core.SequenceNumber, step int) Operation {
	return Operation{target: core.Storage, rw: rw, storageKey: key, value: value, seq: seq, step: step}
}

// Target returns the domain
func (o Operation) Target() core.Target { return o.target }

// RW returns the access direction
func (o Operation) RW() core.RW { return o.rw }

// IsWrite reports whether the operation is a write
func (o Operation) IsWrite() bool { return o.rw == core.Write }

// Seq returns the global sequence number
func (o Operation) Seq() core.SequenceNumber { return o.seq }

// Step returns the index of the trace step that produced the operation
func (o Operation) Step() int { return o.step }

// Value returns the word read or written
func (o Operation) Value() core.Word { return o.value }

// Slot returns the stack slot; only meaningful for stack operations
func (o Operation) Slot() core.Slot { return o.slot }

// Address returns the memory address; only meaningful for memory operations
func (o Operation) Address() core.Address { return o.address }

// StorageKey returns the storage key; only meaningful for storage operations
func (o Operation) StorageKey() core.Word { return o.storageKey }

// KeyHex renders the key in the domain's canonical form
func (o Operation) KeyHex() string {
	switch o.target {
	case core.Stack:
		return o.slot.String()
	case core.Memory:
		return o.address.Hex()
	default:
		return o.storageKey.Hex()
	}
}

func (o Operation) String() string {
	return fmt.Sprintf("#%d %s %s[%s]=%s (step %d)", o.seq, o.rw, o.target, o.KeyHex(), o.value.Hex(), o.step)
}
