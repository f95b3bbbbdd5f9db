package busmapping

import (
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/bus"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/operation"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/tables"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/trace"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/utils"
)

// Word is a 256-bit EVM word
type Word = core.Word

// Address is a memory byte address
type Address = core.Address

// Slot is a stack position counted from the bottom
type Slot = core.Slot

// Target names an operation domain
type Target = core.Target

// Operation domains
const (
	Stack   = core.Stack
	Memory  = core.Memory
	Storage = core.Storage
)

// Access directions
const (
	Read  = core.Read
	Write = core.Write
)

// BlockConstants carries the block context a trace ran in
type BlockConstants = core.BlockConstants

// RawStep is one undecoded trace element
type RawStep = trace.RawStep

// ExecutionStep is one decoded trace element
type ExecutionStep = trace.ExecutionStep

// Operation is one bus access
type Operation = operation.Operation

// StackView, MemoryView and StorageView group operations by location
type (
	StackView   = bus.View[core.Slot]
	MemoryView  = bus.View[core.Address]
	StorageView = bus.View[core.Word]
)

// Tables holds the circuit tables and permutation argument
type Tables = tables.Witness

// Config controls a build
type Config = utils.Config

// DefaultConfig returns the default build configuration
func DefaultConfig() *Config {
	return utils.DefaultConfig()
}

// ParseWord parses a hex word
func ParseWord(s string) (Word, error) { return core.ParseWord(s) }

// ParseAddress parses a hex memory address
func ParseAddress(s string) (Address, error) { return core.ParseAddress(s) }

// MustParseWord is ParseWord that panics on error
func MustParseWord(s string) Word { return core.MustParseWord(s) }

// MustParseAddress is ParseAddress that panics on error
func MustParseAddress(s string) Address { return core.MustParseAddress(s) }
