package tensemble

// AggregateFunction is the regressor's per-target combination policy.
// String values match the ONNX-ML `aggregate_function` attribute exactly.
type AggregateFunction int

const (
	AggregateSum AggregateFunction = iota
	AggregateAverage
	AggregateMin
	AggregateMax
)

func parseAggregateFunction(s string) (AggregateFunction, error) {
	switch s {
	case "SUM":
		return AggregateSum, nil
	case "AVERAGE":
		return AggregateAverage, nil
	case "MIN":
		return AggregateMin, nil
	case "MAX":
		return AggregateMax, nil
	default:
		return AggregateSum, ErrUnknownAggregate
	}
}

// scratch is the per-row accumulation buffer shared by every aggregator
// kind. Each row gets its own scratch, so no two goroutines ever touch the
// same one (§5: private to the row, never shared).
type scratch struct {
	scores []float64
	has    []bool
}

func newScratch(n int) *scratch {
	return &scratch{scores: make([]float64, n), has: make([]bool, n)}
}

// accumulate folds one leaf's sparse weights into the scratch buffer
// according to the aggregate function. CLASSIFIER uses SUM semantics.
func (agg AggregateFunction) accumulate(s *scratch, weights []SparseWeight) {
	for _, w := range weights {
		i := w.Target
		switch agg {
		case AggregateMin:
			if !s.has[i] || w.Value < s.scores[i] {
				s.scores[i] = w.Value
			}
		case AggregateMax:
			if !s.has[i] || w.Value > s.scores[i] {
				s.scores[i] = w.Value
			}
		default: // SUM, AVERAGE
			s.scores[i] += w.Value
		}
		s.has[i] = true
	}
}

// finalizeRegressor writes the per-target output row for the regressor
// kernel: SUM/MIN/MAX add base values unconditionally (per-target, only
// where use_bv applies); AVERAGE divides by nTrees first.
func finalizeRegressor(agg AggregateFunction, s *scratch, baseValues []float64, nTrees int, out []float64) {
	useBV := len(baseValues) == len(s.scores)
	scalarOrigin := len(baseValues) == 1 && len(s.scores) == 1
	for i := range s.scores {
		v := s.scores[i]
		if agg == AggregateAverage && nTrees > 0 {
			if s.has[i] {
				v /= float64(nTrees)
			}
		}
		if !s.has[i] {
			v = 0
		}
		if useBV {
			v += baseValues[i]
		} else if scalarOrigin {
			v += baseValues[0]
		}
		out[i] = v
	}
}
