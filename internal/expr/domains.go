package expr

import (
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Domains lists the physical regions a node lives on. Primary is the domain
// the node varies over; Secondary and Tertiary are auxiliary domains over
// which the primary structure is repeated (e.g. one particle per electrode
// node).
type Domains struct {
	Primary   []string
	Secondary []string
	Tertiary  []string
}

// On is shorthand for Domains with only a primary domain.
func On(primary ...string) Domains {
	return Domains{Primary: primary}
}

// Empty reports whether the node has no primary domain.
func (d Domains) Empty() bool {
	return len(d.Primary) == 0
}

// Equal reports level-by-level equality.
func (d Domains) Equal(o Domains) bool {
	return slices.Equal(d.Primary, o.Primary) &&
		slices.Equal(d.Secondary, o.Secondary) &&
		slices.Equal(d.Tertiary, o.Tertiary)
}

// Level returns the domain list at the given auxiliary level, 0 being primary.
func (d Domains) Level(i int) []string {
	switch i {
	case 0:
		return d.Primary
	case 1:
		return d.Secondary
	case 2:
		return d.Tertiary
	}
	return nil
}

// Shifted drops the primary level and promotes the auxiliary ones. It gives
// the domains of a quantity reduced over its primary domain, such as a
// boundary value or an integral.
func (d Domains) Shifted() Domains {
	return Domains{Primary: d.Secondary, Secondary: d.Tertiary}
}

// WithoutSecondary drops the secondary level, promoting tertiary.
func (d Domains) WithoutSecondary() Domains {
	return Domains{Primary: d.Primary, Secondary: d.Tertiary}
}

// Clone returns a deep copy.
func (d Domains) Clone() Domains {
	return Domains{
		Primary:   slices.Clone(d.Primary),
		Secondary: slices.Clone(d.Secondary),
		Tertiary:  slices.Clone(d.Tertiary),
	}
}

func (d Domains) String() string {
	if d.Empty() {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(strings.Join(d.Primary, ", "))
	sb.WriteString("]")
	if len(d.Secondary) > 0 {
		sb.WriteString(" x [" + strings.Join(d.Secondary, ", ") + "]")
	}
	if len(d.Tertiary) > 0 {
		sb.WriteString(" x [" + strings.Join(d.Tertiary, ", ") + "]")
	}
	return sb.String()
}

func (d Domains) writeHash(h *xxhash.Digest) {
	for _, level := range [][]string{d.Primary, d.Secondary, d.Tertiary} {
		HashUint(h, uint64(len(level)))
		for _, name := range level {
			HashString(h, name)
		}
	}
}

// mergeDomains returns the domains a binary or n-ary operator inherits from
// its operands: the first operand that has a domain wins.
func mergeDomains(nodes ...*Node) Domains {
	for _, n := range nodes {
		if !n.domains.Empty() {
			return n.domains
		}
	}
	return Domains{}
}
