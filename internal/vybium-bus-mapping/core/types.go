package core

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// Target is the state domain an operation touches
type Target uint8

const (
	// Stack domain, keyed by slot position from the bottom of the stack
	Stack Target = iota
	// Memory domain, keyed by byte address
	Memory
	// Storage domain, keyed by 256-bit slot key
	Storage
)

// Targets lists every domain in index order
var Targets = [...]Target{Stack, Memory, Storage}

func (t Target) String() string {
	switch t {
	case Stack:
		return "stack"
	case Memory:
		return "memory"
	case Storage:
		return "storage"
	default:
		return fmt.Sprintf("target(%d)", uint8(t))
	}
}

// RW is the direction of an access
type RW uint8

const (
	// Read accesses observe a value
	Read RW = iota
	// Write accesses replace a value
	Write
)

func (rw RW) String() string {
	if rw == Write {
		return "W"
	}
	return "R"
}

// SequenceNumber is a position in a totally ordered log. Steps and
// operations use separate counters.
type SequenceNumber uint64

// Counter issues sequence numbers starting at 0. It is owned by a single
// derivation and passed explicitly, never shared.
type Counter struct {
	next SequenceNumber
}

// Next returns the next sequence number
func (c *Counter) Next() SequenceNumber {
	n := c.next
	c.next++
	return n
}

// Issued returns how many numbers have been issued
func (c *Counter) Issued() uint64 {
	return uint64(c.next)
}

// Slot is a stack position counted from the bottom of the stack
type Slot int

// Cmp compares two slots
func (s Slot) Cmp(o Slot) int {
	switch {
	case s < o:
		return -1
	case s > o:
		return 1
	}
	return 0
}

func (s Slot) String() string {
	return strconv.Itoa(int(s))
}

// ProgramCounter is a byte offset into the executing code
type ProgramCounter uint64

// BlockConstants are the block-level values the circuit consumes alongside
// the bus mapping. They are carried through unchanged.
type BlockConstants struct {
	Hash       common.Hash
	Coinbase   common.Address
	Timestamp  Word
	Number     Word
	Difficulty Word
	GasLimit   Word
	ChainID    Word
}
