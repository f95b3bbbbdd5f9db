package core

import (
	"fmt"
	"strings"
)

// ErrorCode identifies a bus-mapping failure kind
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrMalformedNumber is returned when text is not a valid hexadecimal word
	ErrMalformedNumber

	// ErrMalformedAddress is returned when text is not a valid hexadecimal memory address
	ErrMalformedAddress

	// ErrUnknownOpcode is returned for an opcode absent from the opcode table
	ErrUnknownOpcode

	// ErrMalformedInstruction is returned when an immediate is missing, superfluous, or the
	// instruction text has the wrong shape
	ErrMalformedInstruction

	// ErrTraceInconsistency is returned when a trace contradicts the declared opcode semantics
	ErrTraceInconsistency

	// ErrOverflow is returned when a value does not fit in 256 bits (or in its immediate width).
	// Overflow errors also match ErrMalformedNumber.
	ErrOverflow

	// ErrInvalidConfig represents an invalid configuration error
	ErrInvalidConfig
)

var codeNames = map[ErrorCode]string{
	ErrUnknown:              "unknown",
	ErrMalformedNumber:      "malformed number",
	ErrMalformedAddress:     "malformed address",
	ErrUnknownOpcode:        "unknown opcode",
	ErrMalformedInstruction: "malformed instruction",
	ErrTraceInconsistency:   "trace inconsistency",
	ErrOverflow:             "overflow",
	ErrInvalidConfig:        "invalid config",
}

// String returns the human readable name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// NoStep marks an error that is not attributed to a trace step.
const NoStep = -1

// Error is the single error type produced by the bus-mapping packages.
//
// Step, Target, Key, Expected and Observed are diagnostics; they are only
// meaningful for the codes that set them (trace inconsistencies mostly).
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error

	Step     int // trace index, NoStep when unknown
	Target   Target
	Key      string
	Expected string
	Observed string
}

// Error returns the error message
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bus-mapping error [%s]: %s", e.Code, e.Message)
	if e.Step != NoStep {
		fmt.Fprintf(&b, " (step %d", e.Step)
		if e.Key != "" {
			fmt.Fprintf(&b, ", %s key %s", e.Target, e.Key)
		}
		if e.Expected != "" || e.Observed != "" {
			fmt.Fprintf(&b, ", expected %s, observed %s", e.Expected, e.Observed)
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Cause)
	}
	return b.String()
}

// Unwrap returns the cause of the error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code. An overflow also matches
// a malformed number.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return e.Code == ErrOverflow && t.Code == ErrMalformedNumber
}

// AtStep returns a copy of e attributed to the given trace index. Errors that
// already name a step keep it.
func (e *Error) AtStep(step int) *Error {
	out := *e
	if out.Step == NoStep {
		out.Step = step
	}
	return &out
}

// Sentinels for errors.Is.
var (
	ErrorMalformedNumber      = &Error{Code: ErrMalformedNumber, Step: NoStep}
	ErrorMalformedAddress     = &Error{Code: ErrMalformedAddress, Step: NoStep}
	ErrorUnknownOpcode        = &Error{Code: ErrUnknownOpcode, Step: NoStep}
	ErrorMalformedInstruction = &Error{Code: ErrMalformedInstruction, Step: NoStep}
	ErrorTraceInconsistency   = &Error{Code: ErrTraceInconsistency, Step: NoStep}
	ErrorOverflow             = &Error{Code: ErrOverflow, Step: NoStep}
	ErrorInvalidConfig        = &Error{Code: ErrInvalidConfig, Step: NoStep}
)

// NewError creates an error with no step attribution
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Step: NoStep}
}

// Inconsistency creates a trace inconsistency naming the step, domain and key
// where the reconstruction diverged from the observation.
func Inconsistency(step int, target Target, key, expected, observed, format string, args ...any) *Error {
	return &Error{
		Code:     ErrTraceInconsistency,
		Message:  fmt.Sprintf(format, args...),
		Step:     step,
		Target:   target,
		Key:      key,
		Expected: expected,
		Observed: observed,
	}
}
