package operation

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/evm"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/trace"
)

var logger = log.New("pkg", "operation")

// DefaultMaxRangeBytes bounds a single memory range access (1 MiB)
const DefaultMaxRangeBytes = 1 << 20

// Options tunes derivation checks
type Options struct {
	// CheckProgramCounter verifies that each step's pc follows from its
	// predecessor's control flow.
	CheckProgramCounter bool

	// MaxRangeBytes is the largest memory range a single access may cover.
	MaxRangeBytes uint64
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{CheckProgramCounter: true, MaxRangeBytes: DefaultMaxRangeBytes}
}

// machine is the reconstructed state entering a step
type machine struct {
	stack   []core.Word
	memory  core.MemorySnapshot
	storage core.StorageSnapshot
}

// stepContext holds the working state while one step is replayed
type stepContext struct {
	index    int
	step     *trace.ExecutionStep
	entry    *evm.Entry
	opts     *Options
	counter  *core.Counter
	ops      []Operation
	operands []core.Word

	machine
}

// Derive replays steps in order and returns the operation log. Sequence
// numbers start at 0 and are shared by all steps. The first inconsistency
// aborts derivation and no operations are returned.
func Derive(steps []trace.ExecutionStep, opts Options) ([]Operation, error) {
	if opts.MaxRangeBytes == 0 {
		opts.MaxRangeBytes = DefaultMaxRangeBytes
	}

	var (
		counter core.Counter
		state   machine
		ops     []Operation
	)
	for i := range steps {
		sc := &stepContext{
			index:   i,
			step:    &steps[i],
			entry:   steps[i].Instruction().Entry(),
			opts:    &opts,
			counter: &counter,
			ops:     ops,
			machine: machine{
				stack:   append([]core.Word(nil), state.stack...),
				memory:  state.memory,
				storage: state.storage,
			},
		}
		if err := sc.replay(); err != nil {
			return nil, err
		}
		if err := sc.reconcile(); err != nil {
			return nil, err
		}
		if opts.CheckProgramCounter && i+1 < len(steps) {
			if err := checkFlow(i, &steps[i], &steps[i+1], sc.operands); err != nil {
				return nil, err
			}
		}
		ops = sc.ops
		state = sc.machine
	}

	logger.Debug("Derived operations", "steps", len(steps), "operations", len(ops))
	return ops, nil
}

func (c *stepContext) emit(op Operation) {
	c.ops = append(c.ops, op)
}

func (c *stepContext) inconsistency(target core.Target, key, expected, observed, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return core.Inconsistency(c.index, target, key, expected, observed, "%s: %s", c.entry.Name(), msg)
}

// replay walks the entry's access list in declaration order.
func (c *stepContext) replay() error {
	for i := 0; i < c.entry.NumAccesses(); i++ {
		a := c.entry.Access(i)
		var err error
		switch a.Role {
		case evm.Pop, evm.Peek:
			err = c.readStack(a)
		case evm.Push, evm.Poke:
			err = c.writeStack(a)
		case evm.Load:
			c.load(a)
		case evm.Store:
			err = c.store(a)
		case evm.RangeLoad, evm.RangeStore:
			err = c.rangeAccess(a)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *stepContext) readStack(a evm.Access) error {
	slot := len(c.stack) - 1 - a.Depth
	if slot < 0 {
		return c.inconsistency(core.Stack, "", strconv.Itoa(a.Depth+1), strconv.Itoa(len(c.stack)),
			"stack underflow")
	}
	value := c.stack[slot]
	if a.Role == evm.Pop {
		c.stack = c.stack[:slot]
	}
	c.operands = append(c.operands, value)
	c.emit(NewStackOp(core.Read, core.Slot(slot), value, c.counter.Next(), c.index))
	return nil
}

func (c *stepContext) writeStack(a evm.Access) error {
	var slot int
	if a.Role == evm.Push {
		slot = len(c.stack)
		if slot >= evm.StackLimit {
			return c.inconsistency(core.Stack, strconv.Itoa(slot), strconv.Itoa(evm.StackLimit),
				strconv.Itoa(slot+1), "stack overflow")
		}
	} else {
		slot = len(c.stack) - 1 - a.Depth
		if slot < 0 {
			return c.inconsistency(core.Stack, "", strconv.Itoa(a.Depth+1), strconv.Itoa(len(c.stack)),
				"stack underflow")
		}
	}

	key := strconv.Itoa(slot)
	observed, ok := c.step.StackAt(slot)
	if !ok {
		return c.inconsistency(core.Stack, key, "a value", "no slot",
			"written slot missing from observed stack of depth %d", c.step.StackLen())
	}
	if err := c.checkSource(a.Value, core.Stack, key, observed); err != nil {
		return err
	}

	if a.Role == evm.Push {
		c.stack = append(c.stack, observed)
	} else {
		c.stack[slot] = observed
	}
	c.emit(NewStackOp(core.Write, core.Slot(slot), observed, c.counter.Next(), c.index))
	return nil
}

func (c *stepContext) load(a evm.Access) {
	key := c.operands[a.KeyArg]
	var value core.Word
	if a.Target == core.Memory {
		addr := core.AddressFromWord(key)
		value = c.memory.Load(addr)
		c.emit(NewMemoryOp(core.Read, addr, value, c.counter.Next(), c.index))
	} else {
		value = c.storage.Load(key)
		c.emit(NewStorageOp(core.Read, key, value, c.counter.Next(), c.index))
	}
	c.operands = append(c.operands, value)
}

func (c *stepContext) store(a evm.Access) error {
	key := c.operands[a.KeyArg]
	if a.Target == core.Memory {
		addr := core.AddressFromWord(key)
		observed := c.step.Memory().Load(addr)
		if err := c.checkSource(a.Value, core.Memory, addr.Hex(), observed); err != nil {
			return err
		}
		c.memory = c.memory.With(addr, observed)
		c.emit(NewMemoryOp(core.Write, addr, observed, c.counter.Next(), c.index))
		return nil
	}

	value, known := c.expected(a.Value)
	snapshot, observedOK := c.step.Storage()
	switch {
	case observedOK:
		observed := snapshot.Load(key)
		if err := c.checkSource(a.Value, core.Storage, key.Hex(), observed); err != nil {
			return err
		}
		value = observed
	case !known:
		return c.inconsistency(core.Storage, key.Hex(), "a storage snapshot", "none",
			"storage write value is not derivable")
	}
	c.storage = c.storage.With(key, value)
	c.emit(NewStorageOp(core.Write, key, value, c.counter.Next(), c.index))
	return nil
}

// rangeAccess covers every 32-byte word of [offset, offset+size).
func (c *stepContext) rangeAccess(a evm.Access) error {
	offset, size := c.operands[a.KeyArg], c.operands[a.SizeArg]
	if size.IsZero() {
		return nil
	}
	base := core.AddressFromWord(offset)
	if !size.IsUint64() || size.Uint64() > c.opts.MaxRangeBytes {
		return c.inconsistency(core.Memory, base.Hex(), fmt.Sprintf("at most %d bytes", c.opts.MaxRangeBytes),
			size.Hex(), "memory range too large")
	}
	words := (size.Uint64() + 31) / 32
	for w := uint64(0); w < words; w++ {
		addr := base.AddUint64(32 * w)
		if a.RW == core.Read {
			c.emit(NewMemoryOp(core.Read, addr, c.memory.Load(addr), c.counter.Next(), c.index))
			continue
		}
		observed := c.step.Memory().Load(addr)
		c.memory = c.memory.With(addr, observed)
		c.emit(NewMemoryOp(core.Write, addr, observed, c.counter.Next(), c.index))
	}
	return nil
}

// expected resolves the value a write must carry; known is false for
// values only the environment can supply.
func (c *stepContext) expected(src evm.Source) (value core.Word, known bool) {
	switch src.Kind {
	case evm.Immediate:
		imm, _ := c.step.Instruction().Immediate()
		return imm, true
	case evm.Zero:
		return core.Word{}, true
	case evm.Operand:
		return c.operands[src.Arg], true
	case evm.LowByte:
		return c.operands[src.Arg].LowByte(), true
	case evm.PC:
		return core.WordFromUint64(uint64(c.step.PC())), true
	case evm.Result:
		args := make([]*uint256.Int, c.entry.Arity())
		for i := range args {
			args[i] = c.operands[i].Uint256()
		}
		return core.WordFromUint256(c.entry.Evaluator()(args)), true
	default:
		return core.Word{}, false
	}
}

func (c *stepContext) checkSource(src evm.Source, target core.Target, key string, observed core.Word) error {
	want, known := c.expected(src)
	if !known || want.Eq(observed) {
		return nil
	}
	return c.inconsistency(target, key, want.Hex(), observed.Hex(), "written value disagrees with instruction semantics")
}

// reconcile compares the reconstructed state with the observed snapshot.
func (c *stepContext) reconcile() error {
	observed := c.step.Stack()
	if len(observed) != len(c.stack) {
		slot := len(c.stack)
		if len(observed) < slot {
			slot = len(observed)
		}
		return c.inconsistency(core.Stack, strconv.Itoa(slot),
			"depth "+strconv.Itoa(len(c.stack)), "depth "+strconv.Itoa(len(observed)),
			"stack depth differs from reconstruction")
	}
	for i := range observed {
		if !observed[i].Eq(c.stack[i]) {
			return c.inconsistency(core.Stack, strconv.Itoa(i), c.stack[i].Hex(), observed[i].Hex(),
				"stack slot differs from reconstruction")
		}
	}

	if addr, want, got, diff := c.memory.FirstDifference(c.step.Memory()); diff {
		return c.inconsistency(core.Memory, addr.Hex(), want.Hex(), got.Hex(),
			"memory differs from reconstruction")
	}

	if snapshot, ok := c.step.Storage(); ok {
		if key, want, got, diff := c.storage.FirstDifference(snapshot); diff {
			return c.inconsistency(core.Storage, key.Hex(), want.Hex(), got.Hex(),
				"storage differs from reconstruction")
		}
	}
	return nil
}
