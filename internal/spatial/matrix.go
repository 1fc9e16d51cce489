package spatial

import (
	"gonum.org/v1/gonum/mat"
)

// Identity returns the n x n identity.
func Identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Ones returns an all-one rows x cols matrix.
func Ones(rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = 1
	}
	return mat.NewDense(rows, cols, data)
}

// Kron returns the Kronecker product a ⊗ b.
func Kron(a, b mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Kronecker(a, b)
	return &out
}

// Repeat returns I_m ⊗ a, the block-diagonal repetition of a used for
// quantities with auxiliary domains. It returns a itself when m is 1.
func Repeat(m int, a *mat.Dense) *mat.Dense {
	if m == 1 {
		return a
	}
	return Kron(Identity(m), a)
}

// Unit returns the n x 1 column with v at row i.
func Unit(n, i int, v float64) *mat.Dense {
	out := mat.NewDense(n, 1, nil)
	out.Set(i, 0, v)
	return out
}

// Row returns the 1 x n row holding values.
func Row(values []float64) *mat.Dense {
	return mat.NewDense(1, len(values), append([]float64(nil), values...))
}

// Selection returns the rows x cols matrix with ones at (offset+i, i) for
// every column i, placing a block of cols entries at row offset.
func Selection(rows, cols, offset int) *mat.Dense {
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < cols; i++ {
		out.Set(offset+i, i, 1)
	}
	return out
}
