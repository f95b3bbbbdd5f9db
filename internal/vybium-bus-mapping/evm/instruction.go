package evm

import (
	"strings"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
)

// Instruction is a decoded opcode with its optional immediate
type Instruction struct {
	entry        *Entry
	immediate    core.Word
	hasImmediate bool
}

// NewInstruction builds an instruction from an entry. The immediate must be
// supplied exactly when the entry declares one.
func NewInstruction(entry *Entry, immediate *core.Word) (Instruction, error) {
	if entry.width == 0 {
		if immediate != nil {
			return Instruction{}, core.NewError(core.ErrMalformedInstruction,
				"%s takes no immediate, got %s", entry.name, immediate.Hex())
		}
		return Instruction{entry: entry}, nil
	}
	if immediate == nil {
		return Instruction{}, core.NewError(core.ErrMalformedInstruction,
			"%s requires a %d-byte immediate", entry.name, entry.width)
	}
	if immediate.Uint256().BitLen() > 8*entry.width {
		return Instruction{}, core.NewError(core.ErrOverflow,
			"immediate %s does not fit in %d bytes of %s", immediate.Hex(), entry.width, entry.name)
	}
	return Instruction{entry: entry, immediate: *immediate, hasImmediate: true}, nil
}

// ParseInstruction decodes "MNEMONIC [immediate]" text. The opcode may also
// be written as a 0x-prefixed byte.
func ParseInstruction(text string) (Instruction, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields) > 2 {
		return Instruction{}, core.NewError(core.ErrMalformedInstruction, "cannot parse instruction %q", text)
	}

	entry, err := lookupToken(fields[0])
	if err != nil {
		return Instruction{}, err
	}

	var immediate *core.Word
	if len(fields) == 2 {
		w, err := core.ParseWord(fields[1])
		if err != nil {
			return Instruction{}, err
		}
		immediate = &w
	}
	return NewInstruction(entry, immediate)
}

func lookupToken(token string) (*Entry, error) {
	if len(token) > 2 && token[0] == '0' && (token[1] == 'x' || token[1] == 'X') {
		w, err := core.ParseWord(token)
		if err != nil || !w.IsUint64() || w.Uint64() > 0xff {
			return nil, core.NewError(core.ErrUnknownOpcode, "unknown opcode %q", token)
		}
		return Lookup(Opcode(w.Uint64()))
	}
	return LookupName(token)
}

// Entry returns the opcode semantics
func (i Instruction) Entry() *Entry { return i.entry }

// Opcode returns the instruction byte
func (i Instruction) Opcode() Opcode { return i.entry.op }

// Immediate returns the attached literal, if any
func (i Instruction) Immediate() (core.Word, bool) { return i.immediate, i.hasImmediate }

// Size returns the encoded length in bytes
func (i Instruction) Size() uint64 { return 1 + uint64(i.entry.width) }

func (i Instruction) String() string {
	if i.entry == nil {
		return "<nil>"
	}
	if i.hasImmediate {
		return i.entry.name + " " + i.immediate.Hex()
	}
	return i.entry.name
}
