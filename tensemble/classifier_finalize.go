package tensemble

import "sort"

// finalizeClassifier implements the multi-class and binary score-shaping
// and label-selection rules of the classifier finalization design.
//
// s holds the per-row accumulated SUM scores (sparse: only s.has[i] entries
// were touched by a leaf this row). classesSeen is ensemble-wide (the union
// of class indices appearing in any leaf, computed once at Build time).
func finalizeClassifier(e *Ensemble, s *scratch) (label int64, scores []float64) {
	nClasses := len(e.ClassLabels)

	if nClasses > 2 {
		return finalizeMultiClass(e, s)
	}
	return finalizeBinary(e, s)
}

func finalizeMultiClass(e *Ensemble, s *scratch) (int64, []float64) {
	nClasses := len(e.ClassLabels)
	dense := len(e.ClassesSeen) == nClasses

	if len(e.BaseValues) == nClasses {
		for k, bv := range e.BaseValues {
			if !s.has[k] {
				s.has[k] = true
				s.scores[k] = bv
			} else {
				s.scores[k] += bv
			}
		}
	}

	maxClass := int64(-1)
	maxWeight := 0.0
	for i, has := range s.has {
		if has && (maxClass == -1 || s.scores[i] > maxWeight) {
			maxClass = int64(i)
			maxWeight = s.scores[i]
		}
	}
	var label int64
	if maxClass >= 0 {
		label = e.ClassLabels[maxClass]
	} else if nClasses > 0 {
		label = e.ClassLabels[0]
	}

	var scores []float64
	if dense {
		scores = make([]float64, nClasses)
		copy(scores, s.scores[:nClasses])
	} else {
		present := make([]int, 0, nClasses)
		for i, has := range s.has {
			if has {
				present = append(present, i)
			}
		}
		sort.Ints(present)
		scores = make([]float64, len(present))
		for j, idx := range present {
			scores[j] = s.scores[idx]
		}
	}

	return label, writeScores(scores, e.PostTransform, -1)
}

func finalizeBinary(e *Ensemble, s *scratch) (int64, []float64) {
	has0, has1 := s.has[0], s.has[1]
	v0, v1 := s.scores[0], s.scores[1]

	switch len(e.BaseValues) {
	case 2:
		if has1 {
			s1 := e.BaseValues[1] + v1
			v0 = -s1
			v1 = s1
		} else {
			// binary-as-multiclass: both classes receive their own base
			// value, independent of whether either ever fired.
			v1 += e.BaseValues[1]
			v0 += e.BaseValues[0]
		}
		has0, has1 = true, true
	case 1:
		// Historical oddity (spec §4.5/§10): base_values[0] is not applied
		// here, so it has no observable effect on the scores, matching the
		// original runtime, which adds it and then overwrites the sum.
	}

	var scores []float64
	switch {
	case has0 && has1:
		scores = []float64{v0, v1}
	case has1:
		scores = []float64{v1}
	case has0:
		scores = []float64{v0}
	default:
		scores = []float64{0}
	}

	posWeight := 0.0
	switch {
	case has1:
		posWeight = v1
	case has0:
		posWeight = v0
	}

	degenerate := len(e.ClassesSeen) == 1

	var label int64
	addSecondClass := -1
	switch {
	case degenerate && e.WeightsAllPositive:
		if posWeight > 0.5 {
			addSecondClass, label = 0, e.ClassLabels[1]
		} else {
			addSecondClass, label = 1, e.ClassLabels[0]
		}
	case degenerate:
		if posWeight > 0 {
			addSecondClass, label = 2, e.ClassLabels[1]
		} else {
			addSecondClass, label = 3, e.ClassLabels[0]
		}
	default:
		if posWeight > 0 {
			label = e.ClassLabels[1]
		} else {
			label = e.ClassLabels[0]
		}
	}

	return label, writeScores(scores, e.PostTransform, addSecondClass)
}
