package tensemble

import (
	"runtime"
	"sync"
)

// Option configures a BatchDriver, following the functional-options pattern
// used elsewhere in the example pack for optional tree-ensemble parameters.
type Option func(*driverOptions)

type driverOptions struct {
	workers      int
	maxTreeDepth int64
}

// WithWorkers overrides the number of goroutines used to parallelize the
// row loop. The default is GOMAXPROCS. Passing 1 disables parallelism.
func WithWorkers(n int) Option {
	return func(o *driverOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithMaxTreeDepth overrides the Ensemble's descent depth clamp (default
// 1000, §4.3's safety clamp against a malformed/cyclic tree). Applied once,
// at driver construction time, before any row is predicted.
func WithMaxTreeDepth(d int64) Option {
	return func(o *driverOptions) {
		if d > 0 {
			o.maxTreeDepth = d
		}
	}
}

// BatchDriver iterates a feature batch against an immutable Ensemble,
// optionally splitting rows across a worker pool (§5).
type BatchDriver struct {
	ensemble *Ensemble
	workers  int
}

// NewBatchDriver builds a driver bound to e. e must not be mutated for the
// lifetime of the driver.
func NewBatchDriver(e *Ensemble, opts ...Option) *BatchDriver {
	o := driverOptions{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.maxTreeDepth > 0 {
		e.MaxTreeDepth = o.maxTreeDepth
	}
	return &BatchDriver{ensemble: e, workers: o.workers}
}

// runRows splits [0,n) into contiguous chunks, one per worker, invoking fn
// for every row index. fn must only touch state private to its own row.
func (d *BatchDriver) runRows(n int, fn func(row int)) {
	if d.workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + d.workers - 1) / d.workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			rr := newRowRange(start, end)
			for rr.hasNext() {
				fn(rr.next())
			}
		}(start, end)
	}
	wg.Wait()
}

// PredictRegressor computes the (N, n_targets) output for a regressor
// ensemble (§4.6).
func (d *BatchDriver) PredictRegressor(x *Matrix) (*Matrix, error) {
	rows, _ := x.Dims()
	e := d.ensemble
	out := NewMatrix(rows, int(e.NTargets), make([]float64, rows*int(e.NTargets)))
	nTrees := len(e.Roots)

	d.runRows(rows, func(row int) {
		var rowBuf []float64
		rowBuf = x.Row(row, rowBuf)
		s := newScratch(int(e.NTargets))
		walkRow(e, rowBuf, s)
		outRow := make([]float64, e.NTargets)
		finalizeRegressor(e.Aggregate, s, e.BaseValues, nTrees, outRow)
		for j, v := range outRow {
			out.Set(row, j, v)
		}
	})
	return out, nil
}

// PredictClassifier computes the (N,) label vector and (N, n_classes) score
// matrix for a classifier ensemble (§4.6).
func (d *BatchDriver) PredictClassifier(x *Matrix) ([]int64, *Matrix, error) {
	rows, _ := x.Dims()
	e := d.ensemble
	nClasses := len(e.ClassLabels)

	labels := make([]int64, rows)
	scoreCols := nClasses
	if nClasses < 2 {
		scoreCols = 2
	}
	out := NewMatrix(rows, scoreCols, make([]float64, rows*scoreCols))

	d.runRows(rows, func(row int) {
		var rowBuf []float64
		rowBuf = x.Row(row, rowBuf)
		s := newScratch(max(nClasses, 2))
		walkRow(e, rowBuf, s)
		label, scores := finalizeClassifier(e, s)
		labels[row] = label
		for j, v := range scores {
			out.Set(row, j, v)
		}
	})
	return labels, out, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
