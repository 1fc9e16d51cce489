package discretize

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/modelerr"
	"github.com/vk/discretego/internal/spatial"
	"gonum.org/v1/gonum/mat"
)

// BlockDiag is a square block-diagonal matrix. Only the blocks are stored.
type BlockDiag struct {
	blocks  []mat.Matrix
	offsets []int
	n       int
}

var _ mat.Matrix = (*BlockDiag)(nil)

// NewBlockDiag places blocks along the diagonal in order. Every block must
// be square.
func NewBlockDiag(blocks ...mat.Matrix) *BlockDiag {
	b := &BlockDiag{}
	for _, blk := range blocks {
		r, c := blk.Dims()
		if r != c {
			panic(fmt.Sprintf("discretize: block of shape %dx%d is not square", r, c))
		}
		b.blocks = append(b.blocks, blk)
		b.offsets = append(b.offsets, b.n)
		b.n += r
	}
	return b
}

func (b *BlockDiag) Dims() (r, c int) { return b.n, b.n }

func (b *BlockDiag) At(i, j int) float64 {
	if i < 0 || i >= b.n || j < 0 || j >= b.n {
		panic(mat.ErrIndexOutOfRange)
	}
	k := sort.Search(len(b.offsets), func(k int) bool { return b.offsets[k] > i }) - 1
	off := b.offsets[k]
	size, _ := b.blocks[k].Dims()
	if j < off || j >= off+size {
		return 0
	}
	return b.blocks[k].At(i-off, j-off)
}

func (b *BlockDiag) T() mat.Matrix { return mat.Transpose{Matrix: b} }

// Blocks returns the diagonal blocks.
func (b *BlockDiag) Blocks() []mat.Matrix { return slices.Clone(b.blocks) }

// zeroBlock is an n x n matrix of zeros that stores nothing.
type zeroBlock int

func (z zeroBlock) Dims() (r, c int) { return int(z), int(z) }
func (z zeroBlock) At(i, j int) float64 {
	if i < 0 || i >= int(z) || j < 0 || j >= int(z) {
		panic(mat.ErrIndexOutOfRange)
	}
	return 0
}
func (z zeroBlock) T() mat.Matrix { return z }

// CreateMassMatrix returns the mass matrix of a model whose differential
// unknowns are rhsKeys and whose algebraic equations have lenAlgebraic rows,
// together with the inverse of its differential part. Blocks follow the
// state-vector order. The inverse is nil when rhsKeys is empty.
func (e *Engine) CreateMassMatrix(rhsKeys []*expr.Node, lenAlgebraic int) (mass, inv mat.Matrix, err error) {
	keys := slices.Clone(rhsKeys)
	starts := make(map[uint64]int, len(keys))
	for _, k := range keys {
		start, ok := e.ys.Start(k)
		if !ok {
			return nil, nil, modelerr.Configurationf("%q has an rhs but is not laid out", k.Name())
		}
		starts[k.ID()] = start
	}
	slices.SortStableFunc(keys, func(a, b *expr.Node) int { return cmp.Compare(starts[a.ID()], starts[b.ID()]) })

	var massBlocks, invBlocks []mat.Matrix
	for _, k := range keys {
		if !k.HasDomain() {
			massBlocks = append(massBlocks, spatial.Identity(1))
			invBlocks = append(invBlocks, spatial.Identity(1))
			continue
		}
		method, err := e.method(k.Domains(), k)
		if err != nil {
			return nil, nil, err
		}
		m, err := method.MassMatrix(k, e.bcs)
		if err != nil {
			return nil, nil, fmt.Errorf("mass matrix of %q: %w", k.Name(), err)
		}
		massBlocks = append(massBlocks, m)
		if method.GridConforming() {
			invBlocks = append(invBlocks, m)
			continue
		}
		var mi mat.Dense
		if err := mi.Inverse(m); err != nil {
			return nil, nil, modelerr.Configurationf("mass matrix of %q cannot be inverted: %v", k.Name(), err)
		}
		invBlocks = append(invBlocks, &mi)
	}
	if lenAlgebraic > 0 {
		massBlocks = append(massBlocks, zeroBlock(lenAlgebraic))
	}
	mass = NewBlockDiag(massBlocks...)
	if len(keys) > 0 {
		inv = NewBlockDiag(invBlocks...)
	}
	return mass, inv, nil
}
