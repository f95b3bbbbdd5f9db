package trace

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/log"
	jsoniter "github.com/json-iterator/go"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/evm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var logger = log.New("pkg", "trace")

// DecodeJSON parses a JSON array of trace elements
func DecodeJSON(data []byte) ([]RawStep, error) {
	var raw []RawStep
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode trace: %w", err)
	}
	return raw, nil
}

// IngestJSON decodes and ingests a JSON trace
func IngestJSON(data []byte) ([]ExecutionStep, error) {
	raw, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return Ingest(raw)
}

// Ingest decodes every raw element in order. The first failure aborts the
// whole trace and carries the element's index.
func Ingest(raw []RawStep) ([]ExecutionStep, error) {
	var counter core.Counter
	steps := make([]ExecutionStep, 0, len(raw))
	for i := range raw {
		step, err := decodeStep(&raw[i], counter.Next())
		if err != nil {
			return nil, attribute(err, i)
		}
		steps = append(steps, step)
	}
	logger.Debug("Ingested trace", "steps", len(steps))
	return steps, nil
}

func attribute(err error, index int) error {
	var e *core.Error
	if errors.As(err, &e) {
		return e.AtStep(index)
	}
	return fmt.Errorf("step %d: %w", index, err)
}

func decodeStep(raw *RawStep, seq core.SequenceNumber) (ExecutionStep, error) {
	instruction, err := evm.ParseInstruction(raw.Opcode)
	if err != nil {
		return ExecutionStep{}, err
	}

	stack := make([]core.Word, len(raw.Stack))
	for i, text := range raw.Stack {
		if stack[i], err = core.ParseWord(text); err != nil {
			return ExecutionStep{}, err
		}
	}
	if len(stack) > evm.StackLimit {
		return ExecutionStep{}, core.Inconsistency(core.NoStep, core.Stack, "", fmt.Sprint(evm.StackLimit),
			fmt.Sprint(len(stack)), "stack exceeds the machine limit")
	}

	memory, err := decodeMemory(raw.Memory)
	if err != nil {
		return ExecutionStep{}, err
	}

	step := NewExecutionStep(seq, core.ProgramCounter(raw.PC), instruction, stack, memory)
	if raw.Storage != nil {
		storage, err := decodeStorage(raw.Storage)
		if err != nil {
			return ExecutionStep{}, err
		}
		step = step.WithStorage(storage)
	}
	return step, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func decodeMemory(m map[string]string) (core.MemorySnapshot, error) {
	entries := make([]core.Entry[core.Address], 0, len(m))
	seen := make(map[string]string, len(m))
	for _, k := range sortedKeys(m) {
		addr, err := core.ParseAddress(k)
		if err != nil {
			return core.MemorySnapshot{}, err
		}
		value, err := core.ParseWord(m[k])
		if err != nil {
			return core.MemorySnapshot{}, err
		}
		if prev, dup := seen[addr.Hex()]; dup {
			return core.MemorySnapshot{}, core.NewError(core.ErrMalformedAddress,
				"address %s given twice (%q and %q)", addr.Hex(), prev, k)
		}
		seen[addr.Hex()] = k
		entries = append(entries, core.Entry[core.Address]{Key: addr, Value: value})
	}
	return core.SparseFrom(entries), nil
}

func decodeStorage(m map[string]string) (core.StorageSnapshot, error) {
	entries := make([]core.Entry[core.Word], 0, len(m))
	seen := make(map[string]string, len(m))
	for _, k := range sortedKeys(m) {
		key, err := core.ParseWord(k)
		if err != nil {
			return core.StorageSnapshot{}, err
		}
		value, err := core.ParseWord(m[k])
		if err != nil {
			return core.StorageSnapshot{}, err
		}
		if prev, dup := seen[key.Hex()]; dup {
			return core.StorageSnapshot{}, core.NewError(core.ErrMalformedNumber,
				"storage key %s given twice (%q and %q)", key.Hex(), prev, k)
		}
		seen[key.Hex()] = k
		entries = append(entries, core.Entry[core.Word]{Key: key, Value: value})
	}
	return core.SparseFrom(entries), nil
}
