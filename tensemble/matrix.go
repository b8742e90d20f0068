package tensemble

import (
	"fmt"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// Matrix is the row-major (N, F) feature-batch carrier at the kernel
// boundary (§6 "Compute input"), generalizing the teacher's
// EMatrix.FeaturesInter convention to a standalone type.
type Matrix struct {
	dense *mat.Dense
}

// NewMatrix wraps data (row-major, length rows*cols) as a Matrix without
// copying.
func NewMatrix(rows, cols int, data []float64) *Matrix {
	return &Matrix{dense: mat.NewDense(rows, cols, data)}
}

// NewMatrixFromShape validates shape against the 2-D contract (§4.6 "Must
// reject any input whose ndim != 2 with BadShape") before wrapping data.
func NewMatrixFromShape(shape []int, data []float64) (*Matrix, error) {
	if len(shape) != 2 {
		return nil, ErrBadShape
	}
	return NewMatrix(shape[0], shape[1], data), nil
}

// Dims returns (rows, cols).
func (m *Matrix) Dims() (int, int) {
	return m.dense.Dims()
}

// At returns the value at (row, col).
func (m *Matrix) At(row, col int) float64 {
	return m.dense.At(row, col)
}

// Row copies row i into dst, growing dst if necessary, and returns it.
func (m *Matrix) Row(i int, dst []float64) []float64 {
	_, cols := m.dense.Dims()
	if cap(dst) < cols {
		dst = make([]float64, cols)
	}
	dst = dst[:cols]
	mat.Row(dst, i, m.dense)
	return dst
}

// Set assigns the value at (row, col); used when building output matrices.
func (m *Matrix) Set(row, col int, v float64) {
	m.dense.Set(row, col, v)
}

// RawDense exposes the underlying gonum matrix for callers that want direct
// BLAS-backed access (e.g. a caller combining predictions with other linear
// algebra).
func (m *Matrix) RawDense() *mat.Dense {
	return m.dense
}

// LoadMatrixNpy reads a 2-D float64 `.npy` file into a Matrix, adapted from
// the teacher's ebl.ReadNpy.
func LoadMatrixNpy(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, err
	}

	shape := r.Header.Descr.Shape
	if len(shape) != 2 {
		return nil, fmt.Errorf("tensemble: %s: %w (ndim=%d)", path, ErrBadShape, len(shape))
	}

	dense := &mat.Dense{}
	if err := r.Read(dense); err != nil {
		return nil, err
	}
	return &Matrix{dense: dense}, nil
}
