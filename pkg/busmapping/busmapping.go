package busmapping

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/bus"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/operation"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/tables"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/trace"
)

var logger = log.New("pkg", "busmapping")

// BusMapping is the result of a successful build. It is immutable and safe
// for concurrent readers.
type BusMapping struct {
	steps  []ExecutionStep
	ops    []Operation
	index  *bus.Index
	tables *tables.Witness
	consts BlockConstants
}

// Build runs ingestion, derivation, indexing and the self checks over raw.
// A nil cfg means DefaultConfig. The first failure is returned and no
// partial mapping is produced.
func Build(raw []RawStep, consts BlockConstants, cfg *Config) (*BusMapping, error) {
	return BuildContext(context.Background(), raw, consts, cfg)
}

// BuildFromJSON is Build over a JSON trace
func BuildFromJSON(data []byte, consts BlockConstants, cfg *Config) (*BusMapping, error) {
	raw, err := trace.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return BuildContext(context.Background(), raw, consts, cfg)
}

// BuildContext is Build with a context governing the concurrent view builds
func BuildContext(ctx context.Context, raw []RawStep, consts BlockConstants, cfg *Config) (*BusMapping, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	steps, err := trace.Ingest(raw)
	if err != nil {
		return nil, err
	}

	ops, err := operation.Derive(steps, operation.Options{
		CheckProgramCounter: cfg.CheckProgramCounter,
		MaxRangeBytes:       cfg.MaxRangeBytes,
	})
	if err != nil {
		return nil, err
	}

	index, err := bus.Build(ctx, ops, cfg.Parallelism)
	if err != nil {
		return nil, fmt.Errorf("build bus index: %w", err)
	}
	if err := index.CheckConsistency(); err != nil {
		return nil, err
	}

	witness, err := tables.NewWitness(index, ops, cfg)
	if err != nil {
		return nil, fmt.Errorf("build bus tables: %w", err)
	}
	if err := witness.VerifyPermutation(); err != nil {
		return nil, err
	}

	logger.Info("Built bus mapping", "steps", len(steps), "operations", len(ops),
		"stackKeys", index.Stack().Len(), "memoryKeys", index.Memory().Len(), "storageKeys", index.Storage().Len())

	return &BusMapping{
		steps:  steps,
		ops:    ops,
		index:  index,
		tables: witness,
		consts: consts,
	}, nil
}

// Steps returns the decoded trace
func (bm *BusMapping) Steps() []ExecutionStep {
	return append([]ExecutionStep(nil), bm.steps...)
}

// Operations returns the operation stream in sequence order
func (bm *BusMapping) Operations() []Operation {
	return append([]Operation(nil), bm.ops...)
}

// StackView returns stack operations grouped by slot
func (bm *BusMapping) StackView() *StackView { return bm.index.Stack() }

// MemoryView returns memory operations grouped by address
func (bm *BusMapping) MemoryView() *MemoryView { return bm.index.Memory() }

// StorageView returns storage operations grouped by key
func (bm *BusMapping) StorageView() *StorageView { return bm.index.Storage() }

// BlockConstants returns the block context supplied to Build
func (bm *BusMapping) BlockConstants() BlockConstants { return bm.consts }

// Tables returns the circuit tables
func (bm *BusMapping) Tables() *Tables { return bm.tables }

// PermutationTerminal returns the terminal shared by the stream and the tables
func (bm *BusMapping) PermutationTerminal() field.Element {
	return bm.tables.StreamTerminal()
}
