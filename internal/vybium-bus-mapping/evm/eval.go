package evm

import (
	"github.com/holiman/uint256"
)

// Evaluator computes the result of a pure instruction from its popped
// operands, top of stack first.
type Evaluator func(args []*uint256.Int) *uint256.Int

func boolWord(b bool) *uint256.Int {
	if b {
		return uint256.NewInt(1)
	}
	return new(uint256.Int)
}

func shiftAmount(shift *uint256.Int) (uint, bool) {
	if !shift.LtUint64(256) {
		return 0, false
	}
	return uint(shift.Uint64()), true
}

// evaluators maps mnemonics to their arithmetic, mirroring the interpreter's
// operand order: args[0] is the value that was on top of the stack.
var evaluators = map[string]Evaluator{
	"ADD":  func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).Add(a[0], a[1]) },
	"MUL":  func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).Mul(a[0], a[1]) },
	"SUB":  func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).Sub(a[0], a[1]) },
	"DIV":  func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).Div(a[0], a[1]) },
	"SDIV": func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).SDiv(a[0], a[1]) },
	"MOD":  func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).Mod(a[0], a[1]) },
	"SMOD": func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).SMod(a[0], a[1]) },
	"ADDMOD": func(a []*uint256.Int) *uint256.Int {
		return new(uint256.Int).AddMod(a[0], a[1], a[2])
	},
	"MULMOD": func(a []*uint256.Int) *uint256.Int {
		return new(uint256.Int).MulMod(a[0], a[1], a[2])
	},
	"EXP": func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).Exp(a[0], a[1]) },
	"SIGNEXTEND": func(a []*uint256.Int) *uint256.Int {
		return new(uint256.Int).ExtendSign(a[1], a[0])
	},
	"LT":     func(a []*uint256.Int) *uint256.Int { return boolWord(a[0].Lt(a[1])) },
	"GT":     func(a []*uint256.Int) *uint256.Int { return boolWord(a[0].Gt(a[1])) },
	"SLT":    func(a []*uint256.Int) *uint256.Int { return boolWord(a[0].Slt(a[1])) },
	"SGT":    func(a []*uint256.Int) *uint256.Int { return boolWord(a[0].Sgt(a[1])) },
	"EQ":     func(a []*uint256.Int) *uint256.Int { return boolWord(a[0].Eq(a[1])) },
	"ISZERO": func(a []*uint256.Int) *uint256.Int { return boolWord(a[0].IsZero()) },
	"AND":    func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).And(a[0], a[1]) },
	"OR":     func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).Or(a[0], a[1]) },
	"XOR":    func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).Xor(a[0], a[1]) },
	"NOT":    func(a []*uint256.Int) *uint256.Int { return new(uint256.Int).Not(a[0]) },
	"BYTE": func(a []*uint256.Int) *uint256.Int {
		return a[1].Clone().Byte(a[0])
	},
	"SHL": func(a []*uint256.Int) *uint256.Int {
		n, ok := shiftAmount(a[0])
		if !ok {
			return new(uint256.Int)
		}
		return new(uint256.Int).Lsh(a[1], n)
	},
	"SHR": func(a []*uint256.Int) *uint256.Int {
		n, ok := shiftAmount(a[0])
		if !ok {
			return new(uint256.Int)
		}
		return new(uint256.Int).Rsh(a[1], n)
	},
	"SAR": func(a []*uint256.Int) *uint256.Int {
		n, ok := shiftAmount(a[0])
		if !ok {
			if a[1].Sign() >= 0 {
				return new(uint256.Int)
			}
			return new(uint256.Int).SetAllOne()
		}
		return new(uint256.Int).SRsh(a[1], n)
	},
}
