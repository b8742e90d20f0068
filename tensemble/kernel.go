package tensemble

// Regressor is a thin wrapper binding a built Ensemble and BatchDriver for
// the TreeEnsembleRegressor contract.
type Regressor struct {
	ensemble *Ensemble
	driver   *BatchDriver
}

// NewRegressor builds an Ensemble from attrs and binds a driver to it.
func NewRegressor(attrs RegressorAttributes, opts ...Option) (*Regressor, error) {
	e, err := BuildRegressor(attrs)
	if err != nil {
		return nil, err
	}
	return &Regressor{ensemble: e, driver: NewBatchDriver(e, opts...)}, nil
}

// Ensemble returns the underlying constructed ensemble, mainly for
// inspection/debugging (DebugString, RenderEnsembleFile).
func (r *Regressor) Ensemble() *Ensemble { return r.ensemble }

// Compute runs inference on shape (a 2-element {rows, cols} slice) and the
// flattened row-major data, returning the (N, n_targets) output matrix.
func (r *Regressor) Compute(shape []int, data []float64) (*Matrix, error) {
	x, err := NewMatrixFromShape(shape, data)
	if err != nil {
		return nil, err
	}
	return r.driver.PredictRegressor(x)
}

// ComputeMatrix is the Matrix-typed equivalent of Compute, for callers that
// already hold a Matrix (e.g. loaded via LoadMatrixNpy).
func (r *Regressor) ComputeMatrix(x *Matrix) (*Matrix, error) {
	return r.driver.PredictRegressor(x)
}

// Classifier is a thin wrapper binding a built Ensemble and BatchDriver for
// the TreeEnsembleClassifier contract.
type Classifier struct {
	ensemble *Ensemble
	driver   *BatchDriver
}

// NewClassifier builds an Ensemble from attrs and binds a driver to it.
func NewClassifier(attrs ClassifierAttributes, opts ...Option) (*Classifier, error) {
	e, err := BuildClassifier(attrs)
	if err != nil {
		return nil, err
	}
	return &Classifier{ensemble: e, driver: NewBatchDriver(e, opts...)}, nil
}

func (c *Classifier) Ensemble() *Ensemble { return c.ensemble }

// Compute runs inference on shape (a 2-element {rows, cols} slice) and the
// flattened row-major data, returning the (N,) label vector and the
// (N, n_classes) score matrix.
func (c *Classifier) Compute(shape []int, data []float64) ([]int64, *Matrix, error) {
	x, err := NewMatrixFromShape(shape, data)
	if err != nil {
		return nil, nil, err
	}
	return c.driver.PredictClassifier(x)
}

// ComputeMatrix is the Matrix-typed equivalent of Compute.
func (c *Classifier) ComputeMatrix(x *Matrix) ([]int64, *Matrix, error) {
	return c.driver.PredictClassifier(x)
}
