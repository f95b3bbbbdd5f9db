// Package busmapping turns an EVM execution trace into the bus mapping a
// zkEVM circuit consumes: the ordered list of every stack, memory and
// storage access the trace performs, grouped by location.
//
// A trace is a list of steps. Each element names the instruction at pc and
// carries the stack, memory and (optionally) storage observed after that
// instruction ran. Replaying the instruction against the previous step's
// state yields the operations, and the values it writes are read from the
// step's own snapshot. Each snapshot must equal the predecessor state with
// the instruction's effects applied, otherwise the trace is rejected. The
// state before the first step is empty.
//
// # Quick Start
//
//	bm, err := busmapping.BuildFromJSON(traceJSON, busmapping.BlockConstants{}, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, op := range bm.Operations() {
//		fmt.Println(op)
//	}
//
//	// all accesses to memory word 0x80, in execution order
//	history := bm.MemoryView().Operations(busmapping.MustParseAddress("80"))
//
// # Trace Format
//
// The JSON trace is an array of elements, each recording the state after
// its instruction:
//
//	[
//		{"memory": {}, "stack": ["40"], "opcode": "PUSH1 40", "pc": 0},
//		{"memory": {}, "stack": ["40", "80"], "opcode": "PUSH1 80", "pc": 2},
//		{"memory": {"80": "40"}, "stack": [], "opcode": "MSTORE", "pc": 4}
//	]
//
// Numbers are hexadecimal with an optional 0x prefix. The stack lists the
// bottom first and the top last. An optional "storage" mapping carries the
// observed storage of the executing contract.
//
// # Guarantees
//
// - Operation sequence numbers are dense and start at zero
// - Every view is a permutation of the operation stream restricted to its domain
// - Within a key, operations keep execution order
// - Every read equals the latest preceding write to the same key, or zero
//
// The last two properties are checked on every build, and a Poseidon-based
// permutation argument ties the circuit tables back to the stream.
//
// # Errors
//
// All failures are *Error values carrying a code, the failing step and, for
// inconsistencies, the offending location with expected and observed values.
// Match them with errors.Is against ErrMalformedNumber, ErrUnknownOpcode,
// ErrTraceInconsistency and the other sentinels.
//
// # Architecture
//
// - pkg/busmapping/: Public API (this package)
// - internal/vybium-bus-mapping/core: words, addresses, sparse snapshots, errors
// - internal/vybium-bus-mapping/evm: opcode table and evaluators
// - internal/vybium-bus-mapping/trace: raw trace ingestion
// - internal/vybium-bus-mapping/operation: operation derivation
// - internal/vybium-bus-mapping/bus: per-domain views
// - internal/vybium-bus-mapping/tables: circuit tables and permutation argument
package busmapping
