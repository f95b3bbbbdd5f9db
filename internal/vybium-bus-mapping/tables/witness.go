package tables

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/bus"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/operation"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/utils"
)

var logger = log.New("pkg", "tables")

// Witness holds the three bus tables of one trace together with the
// challenges and terminals of the permutation argument.
type Witness struct {
	stack   *BusTable
	memory  *BusTable
	storage *BusTable

	challenges     map[string]field.Element
	transcript     []string
	streamTerminal field.Element
}

// Stack returns the stack table
func (w *Witness) Stack() *BusTable { return w.stack }

// Memory returns the memory table
func (w *Witness) Memory() *BusTable { return w.memory }

// Storage returns the storage table
func (w *Witness) Storage() *BusTable { return w.storage }

// Tables returns the tables in target order
func (w *Witness) Tables() []*BusTable {
	return []*BusTable{w.stack, w.memory, w.storage}
}

// Challenges returns a copy of the drawn challenges
func (w *Witness) Challenges() map[string]field.Element {
	out := make(map[string]field.Element, len(w.challenges))
	for k, v := range w.challenges {
		out[k] = v
	}
	return out
}

// Transcript returns the Fiat-Shamir transcript the challenges were drawn from
func (w *Witness) Transcript() []string {
	return append([]string(nil), w.transcript...)
}

// Log2Height returns log2 of the tallest padded table, or -1 when a
// non-empty table is not a power of two high.
func (w *Witness) Log2Height() int {
	tallest := 0
	for _, t := range w.Tables() {
		if t.PaddedHeight() == 0 {
			continue
		}
		if utils.Log2(t.PaddedHeight()) < 0 {
			return -1
		}
		if t.PaddedHeight() > tallest {
			tallest = t.PaddedHeight()
		}
	}
	if tallest == 0 {
		return 0
	}
	return utils.Log2(tallest)
}

// StreamTerminal is the permutation terminal over the operation stream
func (w *Witness) StreamTerminal() field.Element { return w.streamTerminal }

// TablesTerminal is the product of the table terminals
func (w *Witness) TablesTerminal() field.Element {
	acc := field.One
	for _, t := range w.Tables() {
		acc = acc.Mul(t.Terminal())
	}
	return acc
}

// NewWitness lays out ix as tables and runs the permutation argument
// against ops, the stream ix was built from. Challenges come from a
// transcript that absorbs every operation.
func NewWitness(ix *bus.Index, ops []operation.Operation, cfg *utils.Config) (*Witness, error) {
	if cfg == nil {
		cfg = utils.DefaultConfig()
	}

	w := &Witness{}
	var err error
	if w.stack, err = fromView(ix.Stack()); err != nil {
		return nil, err
	}
	if w.memory, err = fromView(ix.Memory()); err != nil {
		return nil, err
	}
	if w.storage, err = fromView(ix.Storage()); err != nil {
		return nil, err
	}

	if cfg.PadTables {
		for _, t := range w.Tables() {
			if err := t.Pad(utils.NextPowerOfTwo(t.Height())); err != nil {
				return nil, err
			}
		}
	}

	channel := utils.NewChannel(cfg.HashFunction)
	channel.SendUint64(uint64(len(ops)))
	for _, op := range ops {
		channel.Send([]byte(op.String()))
	}
	drawn := channel.ReceiveChallenges(len(ChallengeNames))
	w.challenges = make(map[string]field.Element, len(drawn))
	for i, name := range ChallengeNames {
		w.challenges[name] = drawn[i]
	}
	w.transcript = channel.Proof()
	logger.Trace("Drew bus challenges", "transcript", channel.String())

	for _, t := range w.Tables() {
		if err := t.UpdatePermutationArgument(w.challenges); err != nil {
			return nil, err
		}
	}

	compression, err := weightsFrom(w.challenges)
	if err != nil {
		return nil, err
	}
	symbols := make([]field.Element, len(ops))
	for i, op := range ops {
		symbols[i] = compression.compressOp(op)
	}
	w.streamTerminal = ComputeTerminal(symbols, field.One, compression.indeterminate)

	logger.Debug("Built bus tables", "operations", len(ops),
		"stack", w.stack.PaddedHeight(), "memory", w.memory.PaddedHeight(), "storage", w.storage.PaddedHeight(),
		"log2Height", w.Log2Height())
	return w, nil
}

// VerifyPermutation checks that the tables hold exactly the stream's operations
func (w *Witness) VerifyPermutation() error {
	stream, tables := w.streamTerminal, w.TablesTerminal()
	if !stream.Equal(tables) {
		return core.NewError(core.ErrTraceInconsistency,
			"bus tables are not a permutation of the operation stream (stream terminal %d, tables terminal %d)",
			stream.Value(), tables.Value())
	}
	return nil
}

func fromView[K core.Key[K]](v *bus.View[K]) (*BusTable, error) {
	t := NewBusTable(v.Target())
	var err error
	v.Each(func(_ K, group []operation.Operation) bool {
		for i, op := range group {
			if err = t.AddRow(op, i == 0); err != nil {
				return false
			}
		}
		return true
	})
	return t, err
}
