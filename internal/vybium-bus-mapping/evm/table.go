// Package evm holds the static instruction semantics used to replay traces:
// for every opcode, the ordered list of stack, memory and storage accesses it
// performs and, where the instruction is pure arithmetic, its evaluator.
package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
)

// Opcode is an instruction byte
type Opcode = vm.OpCode

// StackLimit is the maximum stack depth of the machine
const StackLimit = 1024

// Flow is the control-flow class of an instruction
type Flow uint8

const (
	// Next continues at pc + 1 + immediate width
	Next Flow = iota
	// Jump continues at its first operand, which must be a JUMPDEST
	Jump
	// JumpIf jumps when its second operand is non-zero
	JumpIf
	// Halt ends the current execution context
	Halt
	// Call enters another execution context
	Call
)

// Entry is the immutable semantics of one opcode
type Entry struct {
	op       Opcode
	name     string
	width    int
	accesses []Access
	flow     Flow
	eval     Evaluator
	operands int
	arity    int
}

// Opcode returns the instruction byte
func (e *Entry) Opcode() Opcode { return e.op }

// Name returns the canonical mnemonic
func (e *Entry) Name() string { return e.name }

// ImmediateWidth returns the immediate size in bytes, 0 if none
func (e *Entry) ImmediateWidth() int { return e.width }

// Flow returns the control-flow class
func (e *Entry) Flow() Flow { return e.flow }

// Evaluator returns the arithmetic evaluator, nil for non-pure instructions
func (e *Entry) Evaluator() Evaluator { return e.eval }

// Arity returns how many stack values the evaluator consumes
func (e *Entry) Arity() int { return e.arity }

// Operands returns the number of single-word reads
func (e *Entry) Operands() int { return e.operands }

// Accesses returns a copy of the declared access list
func (e *Entry) Accesses() []Access {
	return append([]Access(nil), e.accesses...)
}

// NumAccesses returns the length of the access list
func (e *Entry) NumAccesses() int { return len(e.accesses) }

// Access returns the i-th declared access
func (e *Entry) Access(i int) Access { return e.accesses[i] }

func (e *Entry) String() string { return e.name }

var (
	byOpcode [256]*Entry
	byName   = make(map[string]*Entry)
)

// Lookup returns the entry for an instruction byte
func Lookup(op Opcode) (*Entry, error) {
	if e := byOpcode[op]; e != nil {
		return e, nil
	}
	return nil, core.NewError(core.ErrUnknownOpcode, "opcode 0x%02x is not assigned", byte(op))
}

// LookupName returns the entry for a mnemonic, case insensitive
func LookupName(name string) (*Entry, error) {
	if e, ok := byName[strings.ToUpper(name)]; ok {
		return e, nil
	}
	return nil, core.NewError(core.ErrUnknownOpcode, "unknown mnemonic %q", name)
}

// All returns every assigned entry in opcode order
func All() []*Entry {
	out := make([]*Entry, 0, len(byName))
	for _, e := range byOpcode {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func define(op Opcode, name string, flow Flow, accesses ...Access) *Entry {
	e := &Entry{op: op, name: name, flow: flow, accesses: accesses, eval: evaluators[name]}
	if byOpcode[op] != nil {
		panic(fmt.Sprintf("evm: opcode 0x%02x defined twice (%s, %s)", byte(op), byOpcode[op].name, name))
	}
	operands, arity, err := e.validate()
	if err != nil {
		panic(fmt.Sprintf("evm: invalid entry %s: %v", name, err))
	}
	e.operands, e.arity = operands, arity
	byOpcode[op] = e
	byName[name] = e
	return e
}

func alias(name, canonical string) {
	byName[name] = byName[canonical]
}

// validate enforces the table invariants: reads precede writes, operand
// references point at earlier reads, evaluators see only popped operands.
func (e *Entry) validate() (operands, arity int, err error) {
	writing := false
	for i, a := range e.accesses {
		switch a.RW {
		case core.Read:
			if writing {
				return 0, 0, fmt.Errorf("access %d (%s) reads after a write", i, a)
			}
		case core.Write:
			writing = true
		}
		switch a.Role {
		case Pop, Peek, Push, Poke:
			if a.Target != core.Stack {
				return 0, 0, fmt.Errorf("access %d: role %s on %s", i, a.Role, a.Target)
			}
		case RangeLoad, RangeStore:
			if a.Target != core.Memory {
				return 0, 0, fmt.Errorf("access %d: role %s on %s", i, a.Role, a.Target)
			}
			if a.SizeArg >= operands {
				return 0, 0, fmt.Errorf("access %d: size operand %d not yet read", i, a.SizeArg)
			}
			fallthrough
		case Load, Store:
			if a.Target == core.Stack {
				return 0, 0, fmt.Errorf("access %d: role %s on stack", i, a.Role)
			}
			if a.KeyArg >= operands {
				return 0, 0, fmt.Errorf("access %d: key operand %d not yet read", i, a.KeyArg)
			}
		}
		if a.RW == core.Write {
			switch a.Value.Kind {
			case Operand, LowByte:
				if a.Value.Arg >= operands {
					return 0, 0, fmt.Errorf("access %d: value operand %d not yet read", i, a.Value.Arg)
				}
			case Result:
				if e.eval == nil {
					return 0, 0, fmt.Errorf("access %d: result without evaluator", i)
				}
			}
		}
		if a.ProducesOperand() {
			operands++
			if a.Role == Pop && arity == operands-1 {
				arity++
			}
		}
	}
	if e.eval != nil && arity == 0 {
		return 0, 0, fmt.Errorf("evaluator without popped operands")
	}
	return operands, arity, nil
}

func binary(op Opcode, name string) { define(op, name, Next, pop(), pop(), push(result)) }

func unary(op Opcode, name string) { define(op, name, Next, pop(), push(result)) }

// env pushes a value supplied by the execution environment after consuming n operands.
func env(op Opcode, name string, n int) {
	define(op, name, Next, append(pops(n), push(observed))...)
}

func init() {
	define(vm.STOP, "STOP", Halt)

	binary(vm.ADD, "ADD")
	binary(vm.MUL, "MUL")
	binary(vm.SUB, "SUB")
	binary(vm.DIV, "DIV")
	binary(vm.SDIV, "SDIV")
	binary(vm.MOD, "MOD")
	binary(vm.SMOD, "SMOD")
	define(vm.ADDMOD, "ADDMOD", Next, pop(), pop(), pop(), push(result))
	define(vm.MULMOD, "MULMOD", Next, pop(), pop(), pop(), push(result))
	binary(vm.EXP, "EXP")
	binary(vm.SIGNEXTEND, "SIGNEXTEND")

	binary(vm.LT, "LT")
	binary(vm.GT, "GT")
	binary(vm.SLT, "SLT")
	binary(vm.SGT, "SGT")
	binary(vm.EQ, "EQ")
	unary(vm.ISZERO, "ISZERO")
	binary(vm.AND, "AND")
	binary(vm.OR, "OR")
	binary(vm.XOR, "XOR")
	unary(vm.NOT, "NOT")
	binary(vm.BYTE, "BYTE")
	binary(vm.SHL, "SHL")
	binary(vm.SHR, "SHR")
	binary(vm.SAR, "SAR")

	define(vm.KECCAK256, "KECCAK256", Next, pop(), pop(), rangeLoad(0, 1), push(observed))
	alias("SHA3", "KECCAK256")

	env(vm.ADDRESS, "ADDRESS", 0)
	env(vm.BALANCE, "BALANCE", 1)
	env(vm.ORIGIN, "ORIGIN", 0)
	env(vm.CALLER, "CALLER", 0)
	env(vm.CALLVALUE, "CALLVALUE", 0)
	env(vm.CALLDATALOAD, "CALLDATALOAD", 1)
	env(vm.CALLDATASIZE, "CALLDATASIZE", 0)
	define(vm.CALLDATACOPY, "CALLDATACOPY", Next, pop(), pop(), pop(), rangeStore(0, 2))
	env(vm.CODESIZE, "CODESIZE", 0)
	define(vm.CODECOPY, "CODECOPY", Next, pop(), pop(), pop(), rangeStore(0, 2))
	env(vm.GASPRICE, "GASPRICE", 0)
	env(vm.EXTCODESIZE, "EXTCODESIZE", 1)
	define(vm.EXTCODECOPY, "EXTCODECOPY", Next, pop(), pop(), pop(), pop(), rangeStore(1, 3))
	env(vm.RETURNDATASIZE, "RETURNDATASIZE", 0)
	define(vm.RETURNDATACOPY, "RETURNDATACOPY", Next, pop(), pop(), pop(), rangeStore(0, 2))
	env(vm.EXTCODEHASH, "EXTCODEHASH", 1)

	env(vm.BLOCKHASH, "BLOCKHASH", 1)
	env(vm.COINBASE, "COINBASE", 0)
	env(vm.TIMESTAMP, "TIMESTAMP", 0)
	env(vm.NUMBER, "NUMBER", 0)
	env(vm.DIFFICULTY, "DIFFICULTY", 0)
	alias("PREVRANDAO", "DIFFICULTY")
	env(vm.GASLIMIT, "GASLIMIT", 0)
	env(vm.CHAINID, "CHAINID", 0)
	env(vm.SELFBALANCE, "SELFBALANCE", 0)
	env(vm.BASEFEE, "BASEFEE", 0)
	env(vm.BLOBHASH, "BLOBHASH", 1)
	env(vm.BLOBBASEFEE, "BLOBBASEFEE", 0)

	define(vm.POP, "POP", Next, pop())
	define(vm.MLOAD, "MLOAD", Next, pop(), load(core.Memory, 0), push(operand(1)))
	define(vm.MSTORE, "MSTORE", Next, pop(), pop(), store(core.Memory, 0, operand(1)))
	define(vm.MSTORE8, "MSTORE8", Next, pop(), pop(), store(core.Memory, 0, lowByte(1)))
	define(vm.SLOAD, "SLOAD", Next, pop(), load(core.Storage, 0), push(operand(1)))
	define(vm.SSTORE, "SSTORE", Next, pop(), pop(), store(core.Storage, 0, operand(1)))
	define(vm.JUMP, "JUMP", Jump, pop())
	define(vm.JUMPI, "JUMPI", JumpIf, pop(), pop())
	define(vm.PC, "PC", Next, push(Source{Kind: PC}))
	env(vm.MSIZE, "MSIZE", 0)
	env(vm.GAS, "GAS", 0)
	define(vm.JUMPDEST, "JUMPDEST", Next)
	env(vm.TLOAD, "TLOAD", 1)
	define(vm.TSTORE, "TSTORE", Next, pop(), pop())
	define(vm.MCOPY, "MCOPY", Next, pop(), pop(), pop(), rangeLoad(1, 2), rangeStore(0, 2))

	define(vm.PUSH0, "PUSH0", Next, push(Source{Kind: Zero}))
	for n := 1; n <= 32; n++ {
		e := define(vm.PUSH1+Opcode(n-1), fmt.Sprintf("PUSH%d", n), Next, push(Source{Kind: Immediate}))
		e.width = n
	}
	for n := 1; n <= 16; n++ {
		define(vm.DUP1+Opcode(n-1), fmt.Sprintf("DUP%d", n), Next, peek(n-1), push(operand(0)))
	}
	for n := 1; n <= 16; n++ {
		define(vm.SWAP1+Opcode(n-1), fmt.Sprintf("SWAP%d", n), Next,
			peek(0), peek(n), poke(0, operand(1)), poke(n, operand(0)))
	}
	for n := 0; n <= 4; n++ {
		define(vm.LOG0+Opcode(n), fmt.Sprintf("LOG%d", n), Next, append(pops(2+n), rangeLoad(0, 1))...)
	}

	define(vm.CREATE, "CREATE", Call, pop(), pop(), pop(), rangeLoad(1, 2), push(observed))
	define(vm.CALL, "CALL", Call, append(pops(7), rangeLoad(3, 4), rangeStore(5, 6), push(observed))...)
	define(vm.CALLCODE, "CALLCODE", Call, append(pops(7), rangeLoad(3, 4), rangeStore(5, 6), push(observed))...)
	define(vm.RETURN, "RETURN", Halt, pop(), pop(), rangeLoad(0, 1))
	define(vm.DELEGATECALL, "DELEGATECALL", Call, append(pops(6), rangeLoad(2, 3), rangeStore(4, 5), push(observed))...)
	define(vm.CREATE2, "CREATE2", Call, pop(), pop(), pop(), pop(), rangeLoad(1, 2), push(observed))
	define(vm.STATICCALL, "STATICCALL", Call, append(pops(6), rangeLoad(2, 3), rangeStore(4, 5), push(observed))...)
	define(vm.REVERT, "REVERT", Halt, pop(), pop(), rangeLoad(0, 1))
	define(vm.INVALID, "INVALID", Halt)
	define(vm.SELFDESTRUCT, "SELFDESTRUCT", Halt, pop())
	alias("SUICIDE", "SELFDESTRUCT")
}
