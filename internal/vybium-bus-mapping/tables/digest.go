package tables

import (
	"encoding/binary"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/operation"
)

// Digest domain tags. Keys of different domains never share a digest.
const (
	tagStackKey uint64 = iota + 1
	tagMemoryKey
	tagStorageKey
	tagValue
)

func limbDigest(tag uint64, limbs []uint32) field.Element {
	elements := make([]field.Element, 0, len(limbs)+2)
	elements = append(elements, field.New(tag), field.New(uint64(len(limbs))))
	for _, l := range limbs {
		elements = append(elements, field.New(uint64(l)))
	}
	return hash.PoseidonHash(elements)
}

func wordDigest(tag uint64, w core.Word) field.Element {
	limbs := w.Limbs32()
	return limbDigest(tag, limbs[:])
}

// addressLimbs splits a big-endian byte string into 32-bit limbs, least
// significant first. Addresses are unbounded so the count varies.
func addressLimbs(a core.Address) []uint32 {
	b := a.Bytes()
	if pad := len(b) % 4; pad != 0 {
		b = append(make([]byte, 4-pad), b...)
	}
	limbs := make([]uint32, len(b)/4)
	for i := range limbs {
		end := len(b) - 4*i
		limbs[i] = binary.BigEndian.Uint32(b[end-4 : end])
	}
	return limbs
}

// KeyDigest hashes the location an operation touches
func KeyDigest(op operation.Operation) field.Element {
	switch op.Target() {
	case core.Stack:
		return limbDigest(tagStackKey, []uint32{uint32(op.Slot())})
	case core.Memory:
		return limbDigest(tagMemoryKey, addressLimbs(op.Address()))
	default:
		return wordDigest(tagStorageKey, op.StorageKey())
	}
}

// ValueDigest hashes the word an operation carries
func ValueDigest(op operation.Operation) field.Element {
	return wordDigest(tagValue, op.Value())
}
