package tensemble

import "testing"

func TestFinalizeMultiClassArgmaxTieBreak(t *testing.T) {
	e := &Ensemble{
		ClassLabels:   []int64{10, 20, 30},
		ClassesSeen:   map[int64]bool{0: true, 1: true, 2: true},
		PostTransform: TransformNone,
	}
	s := newScratch(3)
	s.scores[0], s.has[0] = 1, true
	s.scores[1], s.has[1] = 1, true // tie with index 0; first-seen must win on a strict '>' compare
	s.scores[2], s.has[2] = 0.5, true

	label, scores := finalizeMultiClass(e, s)
	if label != 10 {
		t.Errorf("label = %d, want 10 (tie broken in favor of the first-seen max)", label)
	}
	if len(scores) != 3 {
		t.Fatalf("len(scores) = %d, want 3", len(scores))
	}
}

// §8 scenario 3: raw per-class scores [1,2,3], SOFTMAX transform, class 2
// (0-indexed) wins.
func TestFinalizeMultiClassSoftmaxScenario(t *testing.T) {
	e := &Ensemble{
		ClassLabels:   []int64{0, 1, 2},
		ClassesSeen:   map[int64]bool{0: true, 1: true, 2: true},
		PostTransform: TransformSoftmax,
	}
	s := newScratch(3)
	s.scores[0], s.has[0] = 1, true
	s.scores[1], s.has[1] = 2, true
	s.scores[2], s.has[2] = 3, true

	label, scores := finalizeMultiClass(e, s)
	if label != 2 {
		t.Errorf("label = %d, want 2", label)
	}
	want := []float64{0.0900, 0.2447, 0.6652}
	for i := range want {
		if d := scores[i] - want[i]; d > 1e-3 || d < -1e-3 {
			t.Errorf("scores[%d] = %g, want %g", i, scores[i], want[i])
		}
	}
}

// Corrected single-stump binary scenario: a single accumulator slot
// (target index 1) is used by every leaf, the conventional encoding for a
// binary ONNX-ML classifier, rather than the two-distinct-class-id
// construction in the distilled worked example this was derived from (see
// the "Resolved ambiguity" note in DESIGN.md). A pos_weight of 0.7 crosses
// the 0.5 threshold so the positive label wins, matching §8 scenario 6.
func TestFinalizeBinaryDegenerateAllPositive(t *testing.T) {
	e := &Ensemble{
		ClassLabels:        []int64{0, 1},
		ClassesSeen:        map[int64]bool{1: true},
		WeightsAllPositive: true,
		PostTransform:      TransformNone,
	}
	s := newScratch(2)
	s.scores[1], s.has[1] = 0.7, true

	label, scores := finalizeBinary(e, s)
	if label != 1 {
		t.Errorf("label = %d, want 1", label)
	}
	want := []float64{0.3, 0.7}
	if len(scores) != 2 || scores[0] != want[0] || scores[1] != want[1] {
		t.Errorf("scores = %v, want %v", scores, want)
	}
}

func TestFinalizeBinaryDegenerateAllPositiveBelowThreshold(t *testing.T) {
	e := &Ensemble{
		ClassLabels:        []int64{0, 1},
		ClassesSeen:        map[int64]bool{1: true},
		WeightsAllPositive: true,
		PostTransform:      TransformNone,
	}
	s := newScratch(2)
	s.scores[1], s.has[1] = 0.3, true

	label, scores := finalizeBinary(e, s)
	if label != 0 {
		t.Errorf("label = %d, want 0", label)
	}
	want := []float64{0.7, 0.3}
	if len(scores) != 2 || scores[0] != want[0] || scores[1] != want[1] {
		t.Errorf("scores = %v, want %v", scores, want)
	}
}

func TestFinalizeBinaryDegenerateMixedSignWeights(t *testing.T) {
	e := &Ensemble{
		ClassLabels:        []int64{0, 1},
		ClassesSeen:        map[int64]bool{1: true},
		WeightsAllPositive: false,
		PostTransform:      TransformNone,
	}
	s := newScratch(2)
	s.scores[1], s.has[1] = 0.4, true

	label, scores := finalizeBinary(e, s)
	if label != 1 {
		t.Errorf("label = %d, want 1", label)
	}
	want := []float64{-0.4, 0.4}
	if len(scores) != 2 || scores[0] != want[0] || scores[1] != want[1] {
		t.Errorf("scores = %v, want %v", scores, want)
	}
}

// TestFinalizeBinaryNonDegenerate exercises the non-degenerate path (both
// class ids genuinely appear across the ensemble's leaves), where the
// label follows pos_weight's sign directly and writeScores passes the two
// accumulated slots through unshaped (addSecondClass stays -1).
func TestFinalizeBinaryNonDegenerate(t *testing.T) {
	e := &Ensemble{
		ClassLabels: []int64{0, 1},
		ClassesSeen: map[int64]bool{0: true, 1: true},
	}
	s := newScratch(2)
	s.scores[0], s.has[0] = 0.2, true
	s.scores[1], s.has[1] = 0.8, true

	label, scores := finalizeBinary(e, s)
	if label != 1 {
		t.Errorf("label = %d, want 1 (pos_weight = scores[1] = 0.8 > 0)", label)
	}
	if len(scores) != 2 || scores[0] != 0.2 || scores[1] != 0.8 {
		t.Errorf("scores = %v, want [0.2 0.8]", scores)
	}
}
