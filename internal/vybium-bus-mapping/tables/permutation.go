package tables

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// ComputeTerminal evaluates initial · Π_i (challenge - symbols[i])
func ComputeTerminal(symbols []field.Element, initial, challenge field.Element) field.Element {
	result := initial
	for _, symbol := range symbols {
		result = result.Mul(challenge.Sub(symbol))
	}
	return result
}

// ComputeRunningProduct returns every prefix of ComputeTerminal:
// RP[i] = RP[i-1] * (challenge - symbols[i]), with RP[-1] = initial.
func ComputeRunningProduct(symbols []field.Element, initial, challenge field.Element) ([]field.Element, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols cannot be empty")
	}

	out := make([]field.Element, len(symbols))
	acc := initial
	for i, symbol := range symbols {
		acc = acc.Mul(challenge.Sub(symbol))
		out[i] = acc
	}
	return out, nil
}
