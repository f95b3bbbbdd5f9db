package busmapping

import "github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"

// Error is the single error type returned by this package
type Error = core.Error

// ErrorCode classifies an Error
type ErrorCode = core.ErrorCode

// NoStep marks an error not attributable to a trace step
const NoStep = core.NoStep

// Sentinels for errors.Is
var (
	ErrMalformedNumber      = core.ErrorMalformedNumber
	ErrMalformedAddress     = core.ErrorMalformedAddress
	ErrUnknownOpcode        = core.ErrorUnknownOpcode
	ErrMalformedInstruction = core.ErrorMalformedInstruction
	ErrTraceInconsistency   = core.ErrorTraceInconsistency
	ErrOverflow             = core.ErrorOverflow
	ErrInvalidConfig        = core.ErrorInvalidConfig
)
