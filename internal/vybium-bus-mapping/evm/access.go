package evm

import (
	"fmt"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
)

// Role says how an access locates its key
type Role uint8

const (
	// Pop reads the top of the stack and removes it
	Pop Role = iota
	// Peek reads the stack slot Depth below the top without removing it
	Peek
	// Push writes a new top of stack
	Push
	// Poke overwrites the stack slot Depth below the top
	Poke
	// Load reads one word at the key given by operand KeyArg
	Load
	// Store writes one word at the key given by operand KeyArg
	Store
	// RangeLoad reads every word in [operand KeyArg, +operand SizeArg)
	RangeLoad
	// RangeStore writes every word in [operand KeyArg, +operand SizeArg)
	RangeStore
)

var roleNames = [...]string{"pop", "peek", "push", "poke", "load", "store", "range-load", "range-store"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// SourceKind says where the expected value of a write comes from
type SourceKind uint8

const (
	// Observed values are taken from the post-step snapshot unchecked
	Observed SourceKind = iota
	// Immediate is the literal attached to the instruction
	Immediate
	// Zero is the constant 0
	Zero
	// Operand is the value of an earlier read of the same instruction
	Operand
	// LowByte is the least significant byte of an earlier read
	LowByte
	// Result is the arithmetic result of the entry's evaluator
	Result
	// PC is the program counter of the step
	PC
)

// Source describes the expected value of a write
type Source struct {
	Kind SourceKind
	Arg  int // operand index for Operand and LowByte
}

// Access is one declared domain access of an instruction.
//
// Operands are numbered in declaration order over the single-word reads
// (Pop, Peek and Load). Range loads produce no operand.
type Access struct {
	Target  core.Target
	RW      core.RW
	Role    Role
	Depth   int    // Peek, Poke
	KeyArg  int    // Load, Store, RangeLoad, RangeStore
	SizeArg int    // RangeLoad, RangeStore
	Value   Source // writes only
}

// ProducesOperand reports whether the access yields an operand value
func (a Access) ProducesOperand() bool {
	return a.RW == core.Read && a.Role != RangeLoad
}

func (a Access) String() string {
	return fmt.Sprintf("%s-%s-%s", a.Target, a.RW, a.Role)
}

func pop() Access { return Access{Target: core.Stack, RW: core.Read, Role: Pop} }

func peek(depth int) Access {
	return Access{Target: core.Stack, RW: core.Read, Role: Peek, Depth: depth}
}

func push(src Source) Access {
	return Access{Target: core.Stack, RW: core.Write, Role: Push, Value: src}
}

func poke(depth int, src Source) Access {
	return Access{Target: core.Stack, RW: core.Write, Role: Poke, Depth: depth, Value: src}
}

func load(target core.Target, keyArg int) Access {
	return Access{Target: target, RW: core.Read, Role: Load, KeyArg: keyArg}
}

func store(target core.Target, keyArg int, src Source) Access {
	return Access{Target: target, RW: core.Write, Role: Store, KeyArg: keyArg, Value: src}
}

func rangeLoad(offsetArg, sizeArg int) Access {
	return Access{Target: core.Memory, RW: core.Read, Role: RangeLoad, KeyArg: offsetArg, SizeArg: sizeArg}
}

func rangeStore(offsetArg, sizeArg int) Access {
	return Access{
		Target: core.Memory, RW: core.Write, Role: RangeStore,
		KeyArg: offsetArg, SizeArg: sizeArg, Value: Source{Kind: Observed},
	}
}

var (
	observed = Source{Kind: Observed}
	result   = Source{Kind: Result}
)

func operand(i int) Source { return Source{Kind: Operand, Arg: i} }

func lowByte(i int) Source { return Source{Kind: LowByte, Arg: i} }

func pops(n int) []Access {
	out := make([]Access, n)
	for i := range out {
		out[i] = pop()
	}
	return out
}
