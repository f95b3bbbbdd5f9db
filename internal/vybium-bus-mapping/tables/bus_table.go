// Package tables lays the bus views out as circuit-facing tables and ties
// them back to the operation stream with a permutation argument.
package tables

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/operation"
)

// Row kinds
const (
	KindWrite   = 0
	KindRead    = 1
	KindPadding = 2
)

// Challenge names consumed by UpdatePermutationArgument
const (
	ChallengeIndeterminate = "bus_indeterminate"
	ChallengeClockWeight   = "bus_clk_weight"
	ChallengeKindWeight    = "bus_kind_weight"
	ChallengeKeyWeight     = "bus_key_weight"
	ChallengeValueWeight   = "bus_value_weight"
)

// ChallengeNames lists the challenges in the order they are drawn
var ChallengeNames = []string{
	ChallengeIndeterminate,
	ChallengeClockWeight,
	ChallengeKindWeight,
	ChallengeKeyWeight,
	ChallengeValueWeight,
}

// BusTable is one domain's view flattened into rows: grouped by key in
// ascending key order, sequence order within a key.
type BusTable struct {
	target core.Target

	// Main columns
	clk         []field.Element // sequence number of the operation
	kind        []field.Element // 0=WRITE, 1=READ, 2=PADDING
	keyDigest   []field.Element
	valueDigest []field.Element
	keyChange   []field.Element // 1 on the first row of each key

	// Auxiliary columns
	runningProduct []field.Element

	height       int
	paddedHeight int
}

// NewBusTable creates an empty table for target
func NewBusTable(target core.Target) *BusTable {
	return &BusTable{target: target}
}

// Target returns the table's domain
func (bt *BusTable) Target() core.Target { return bt.target }

// Height returns the number of operation rows
func (bt *BusTable) Height() int { return bt.height }

// PaddedHeight returns the row count including padding
func (bt *BusTable) PaddedHeight() int { return len(bt.clk) }

// MainColumns returns clk, kind, key digest, value digest and key change
func (bt *BusTable) MainColumns() [][]field.Element {
	return [][]field.Element{bt.clk, bt.kind, bt.keyDigest, bt.valueDigest, bt.keyChange}
}

// RunningProduct returns the permutation running-product column
func (bt *BusTable) RunningProduct() []field.Element {
	return append([]field.Element(nil), bt.runningProduct...)
}

// AddRow appends op. Rows cannot be added after padding.
func (bt *BusTable) AddRow(op operation.Operation, keyChange bool) error {
	if op.Target() != bt.target {
		return fmt.Errorf("%s operation #%d cannot go in the %s table", op.Target(), op.Seq(), bt.target)
	}
	if bt.paddedHeight != 0 {
		return fmt.Errorf("cannot add rows to a padded table")
	}

	kind := KindRead
	if op.IsWrite() {
		kind = KindWrite
	}
	change := field.Zero
	if keyChange {
		change = field.One
	}

	bt.clk = append(bt.clk, field.New(uint64(op.Seq())))
	bt.kind = append(bt.kind, field.New(uint64(kind)))
	bt.keyDigest = append(bt.keyDigest, KeyDigest(op))
	bt.valueDigest = append(bt.valueDigest, ValueDigest(op))
	bt.keyChange = append(bt.keyChange, change)
	bt.runningProduct = append(bt.runningProduct, field.Zero)

	bt.height++
	return nil
}

// Pad extends the table to targetHeight with padding rows that repeat the
// last row under the padding kind. An empty table is left empty.
func (bt *BusTable) Pad(targetHeight int) error {
	if targetHeight < len(bt.clk) {
		return fmt.Errorf("target height %d is less than current height %d", targetHeight, len(bt.clk))
	}
	if bt.height == 0 {
		return nil
	}

	padding := field.New(KindPadding)
	last := bt.height - 1
	for len(bt.clk) < targetHeight {
		bt.clk = append(bt.clk, bt.clk[last])
		bt.kind = append(bt.kind, padding)
		bt.keyDigest = append(bt.keyDigest, bt.keyDigest[last])
		bt.valueDigest = append(bt.valueDigest, bt.valueDigest[last])
		bt.keyChange = append(bt.keyChange, field.Zero)
		bt.runningProduct = append(bt.runningProduct, bt.runningProduct[last])
	}

	bt.paddedHeight = targetHeight
	return nil
}

// weights holds the compression challenges
type weights struct {
	indeterminate, clk, kind, key, value field.Element
}

func weightsFrom(challenges map[string]field.Element) (weights, error) {
	var w weights
	dst := []*field.Element{&w.indeterminate, &w.clk, &w.kind, &w.key, &w.value}
	for i, name := range ChallengeNames {
		c, ok := challenges[name]
		if !ok {
			return weights{}, fmt.Errorf("missing %s challenge", name)
		}
		*dst[i] = c
	}
	return w, nil
}

func (w weights) compress(clk, kind, key, value field.Element) field.Element {
	return w.clk.Mul(clk).
		Add(w.kind.Mul(kind)).
		Add(w.key.Mul(key)).
		Add(w.value.Mul(value))
}

// compressOp gives the symbol an operation contributes to the argument
func (w weights) compressOp(op operation.Operation) field.Element {
	kind := uint64(KindRead)
	if op.IsWrite() {
		kind = KindWrite
	}
	return w.compress(field.New(uint64(op.Seq())), field.New(kind), KeyDigest(op), ValueDigest(op))
}

// UpdatePermutationArgument fills the running-product column. Padding rows
// carry the previous value forward.
func (bt *BusTable) UpdatePermutationArgument(challenges map[string]field.Element) error {
	w, err := weightsFrom(challenges)
	if err != nil {
		return err
	}

	padding := field.New(KindPadding)
	acc := field.One
	for i := range bt.clk {
		if !bt.kind[i].Equal(padding) {
			row := w.compress(bt.clk[i], bt.kind[i], bt.keyDigest[i], bt.valueDigest[i])
			acc = acc.Mul(w.indeterminate.Sub(row))
		}
		bt.runningProduct[i] = acc
	}
	return nil
}

// Terminal returns the last running-product value, or one for an empty table
func (bt *BusTable) Terminal() field.Element {
	if len(bt.runningProduct) == 0 {
		return field.One
	}
	return bt.runningProduct[len(bt.runningProduct)-1]
}
