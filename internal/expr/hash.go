package expr

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Payload is the kind-specific data embedded in a node. It contributes to the
// node's structural identity through WriteHash.
type Payload interface {
	WriteHash(h *xxhash.Digest)
}

// HashUint writes u into the digest.
func HashUint(h *xxhash.Digest, u uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u)
	_, _ = h.Write(buf[:])
}

// HashFloat writes the bit pattern of f into the digest.
func HashFloat(h *xxhash.Digest, f float64) {
	HashUint(h, math.Float64bits(f))
}

// HashString writes a length-prefixed string into the digest.
func HashString(h *xxhash.Digest, s string) {
	HashUint(h, uint64(len(s)))
	_, _ = h.WriteString(s)
}

func computeID(kind Kind, name string, domains Domains, children []*Node, payload Payload) uint64 {
	h := xxhash.New()
	HashUint(h, uint64(kind))
	HashString(h, name)
	domains.writeHash(h)
	HashUint(h, uint64(len(children)))
	for _, c := range children {
		HashUint(h, c.id)
	}
	if payload != nil {
		payload.WriteHash(h)
	}
	return h.Sum64()
}
