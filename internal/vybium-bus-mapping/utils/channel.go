package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// Channel is a Fiat-Shamir transcript. Everything sent is absorbed into
// the state; challenges are squeezed from it deterministically.
type Channel struct {
	state    []byte
	proof    []string
	hashFunc string
}

// NewChannel creates a new Fiat-Shamir channel
func NewChannel(hashFunc string) *Channel {
	if hashFunc == "" {
		hashFunc = HashSHA3
	}
	return &Channel{
		state:    []byte{0},
		proof:    make([]string, 0, 64),
		hashFunc: hashFunc,
	}
}

// Send absorbs data into the channel state
func (c *Channel) Send(data []byte) {
	c.proof = append(c.proof, fmt.Sprintf("send:%s", hex.EncodeToString(data)))
	c.state = c.hash(append(c.State(), data...))
}

// SendUint64 absorbs n as 8 big-endian bytes
func (c *Channel) SendUint64(n uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	c.Send(buf[:])
}

// ReceiveRandomInt draws an integer in [min, max]. It returns nil if min > max.
func (c *Channel) ReceiveRandomInt(min, max *big.Int) *big.Int {
	if min.Cmp(max) > 0 {
		return nil
	}

	rangeSize := new(big.Int).Sub(max, min)
	rangeSize.Add(rangeSize, big.NewInt(1))

	random := new(big.Int).SetBytes(c.state)
	random.Mod(random, rangeSize)
	random.Add(random, min)

	c.proof = append(c.proof, fmt.Sprintf("receiveRandInt:%s", random.String()))
	c.state = c.hash(c.state)

	return random
}

// ReceiveChallenge draws a field element
func (c *Channel) ReceiveChallenge() field.Element {
	random := c.ReceiveRandomInt(big.NewInt(0), new(big.Int).SetUint64(field.P-1))
	return field.New(random.Uint64())
}

// ReceiveChallenges draws n field elements
func (c *Channel) ReceiveChallenges(n int) []field.Element {
	out := make([]field.Element, n)
	for i := range out {
		out[i] = c.ReceiveChallenge()
	}
	return out
}

// State returns the current channel state
func (c *Channel) State() []byte {
	return append([]byte(nil), c.state...)
}

// Proof returns the transcript entries
func (c *Channel) Proof() []string {
	return append([]string(nil), c.proof...)
}

func (c *Channel) hash(data []byte) []byte {
	switch c.hashFunc {
	case HashSHA256:
		h := sha256.Sum256(data)
		return h[:]
	case HashPoseidon:
		return poseidonBytes(data)
	default:
		h := sha3.Sum256(data)
		return h[:]
	}
}

// poseidonBytes hashes data as 7-byte field chunks and squeezes four
// domain-separated outputs into 32 bytes.
func poseidonBytes(data []byte) []byte {
	elements := make([]field.Element, 0, len(data)/7+2)
	for start := 0; start < len(data); start += 7 {
		end := start + 7
		if end > len(data) {
			end = len(data)
		}
		var chunk [8]byte
		copy(chunk[8-(end-start):], data[start:end])
		elements = append(elements, field.New(binary.BigEndian.Uint64(chunk[:])))
	}
	elements = append(elements, field.New(uint64(len(data))))

	out := make([]byte, 0, 32)
	for i := uint64(0); i < 4; i++ {
		digest := hash.PoseidonHash(append(elements, field.New(i)))
		out = binary.BigEndian.AppendUint64(out, digest.Value())
	}
	return out
}

// String returns the transcript as one line
func (c *Channel) String() string {
	return strings.Join(c.proof, " ")
}
