package tensemble

import (
	"errors"
	"testing"
)

// singleStumpRegressor returns a minimal one-tree, two-leaf regressor
// attribute bundle: feature 0 <= 5 routes to node 1 (weight 3.0), else
// node 2 (weight 5.0).
func singleStumpRegressor() RegressorAttributes {
	return RegressorAttributes{
		AggregateFunction:           "SUM",
		NTargets:                    1,
		NodesTreeIDs:                []int64{0, 0, 0},
		NodesNodeIDs:                []int64{0, 1, 2},
		NodesFeatureIDs:             []int64{0, 0, 0},
		NodesValues:                 []float64{5, 0, 0},
		NodesModes:                  []string{"BRANCH_LEQ", "LEAF", "LEAF"},
		NodesTrueNodeIDs:            []int64{1, 0, 0},
		NodesFalseNodeIDs:           []int64{2, 0, 0},
		NodesMissingValueTracksTrue: []int64{0, 0, 0},
		TargetTreeIDs:               []int64{0, 0},
		TargetNodeIDs:               []int64{1, 2},
		TargetIDs:                   []int64{0, 0},
		TargetWeights:               []float64{3.0, 5.0},
	}
}

func TestBuildRegressorHappyPath(t *testing.T) {
	e, err := BuildRegressor(singleStumpRegressor())
	if err != nil {
		t.Fatalf("BuildRegressor: %v", err)
	}
	if len(e.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(e.Nodes))
	}
	if len(e.Roots) != 1 || e.Roots[0] != 0 {
		t.Fatalf("Roots = %v, want [0]", e.Roots)
	}
	if !e.SameMode {
		t.Errorf("SameMode = false, want true (only one branch mode present)")
	}
	if e.HasMissingTracks {
		t.Errorf("HasMissingTracks = true, want false (all tracks are 0)")
	}
}

func TestBuildRegressorTwoTreeRootDerivation(t *testing.T) {
	attrs := RegressorAttributes{
		NTargets:          1,
		NodesTreeIDs:       []int64{0, 0, 0, 1, 1, 1},
		NodesNodeIDs:       []int64{0, 1, 2, 0, 1, 2},
		NodesFeatureIDs:    []int64{0, 0, 0, 0, 0, 0},
		NodesValues:        []float64{5, 0, 0, 5, 0, 0},
		NodesModes:         []string{"BRANCH_LEQ", "LEAF", "LEAF", "BRANCH_LEQ", "LEAF", "LEAF"},
		NodesTrueNodeIDs:   []int64{1, 0, 0, 1, 0, 0},
		NodesFalseNodeIDs:  []int64{2, 0, 0, 2, 0, 0},
		TargetTreeIDs:      []int64{0, 0, 1, 1},
		TargetNodeIDs:      []int64{1, 2, 1, 2},
		TargetIDs:          []int64{0, 0, 0, 0},
		TargetWeights:      []float64{3.0, 5.0, 1.0, 2.0},
	}
	e, err := BuildRegressor(attrs)
	if err != nil {
		t.Fatalf("BuildRegressor: %v", err)
	}
	if len(e.Roots) != 2 || e.Roots[0] != 0 || e.Roots[1] != 3 {
		t.Fatalf("Roots = %v, want [0 3]", e.Roots)
	}
}

func TestBuildRegressorDuplicateNode(t *testing.T) {
	attrs := singleStumpRegressor()
	attrs.NodesNodeIDs = []int64{0, 0, 2} // duplicate (tree=0, node=0)
	_, err := BuildRegressor(attrs)
	if !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("err = %v, want ErrDuplicateNode", err)
	}
}

func TestBuildRegressorDanglingChild(t *testing.T) {
	attrs := singleStumpRegressor()
	attrs.NodesTrueNodeIDs = []int64{99, 0, 0}
	_, err := BuildRegressor(attrs)
	if !errors.Is(err, ErrDanglingChild) {
		t.Fatalf("err = %v, want ErrDanglingChild", err)
	}
}

func TestBuildRegressorSelfLoop(t *testing.T) {
	attrs := singleStumpRegressor()
	attrs.NodesTrueNodeIDs = []int64{0, 0, 0} // root points to itself
	_, err := BuildRegressor(attrs)
	if !errors.Is(err, ErrSelfLoop) {
		t.Fatalf("err = %v, want ErrSelfLoop", err)
	}
}

// TestBuildRegressorNodeIDsReusedAcrossTrees confirms that node ids are
// tree-scoped: the same node id may appear in two different trees without
// colliding, since the duplicate-node and dangling-child checks are always
// keyed on (tree_id, node_id) pairs together.
func TestBuildRegressorNodeIDsReusedAcrossTrees(t *testing.T) {
	attrs := RegressorAttributes{
		NTargets:          1,
		NodesTreeIDs:      []int64{0, 0, 0, 1, 1, 1},
		NodesNodeIDs:      []int64{0, 1, 2, 0, 1, 2},
		NodesFeatureIDs:   []int64{0, 0, 0, 0, 0, 0},
		NodesValues:       []float64{5, 0, 0, 5, 0, 0},
		NodesModes:        []string{"BRANCH_LEQ", "LEAF", "LEAF", "BRANCH_LEQ", "LEAF", "LEAF"},
		NodesTrueNodeIDs:  []int64{1, 0, 0, 1, 0, 0},
		NodesFalseNodeIDs: []int64{2, 0, 0, 2, 0, 0},
	}
	if _, err := BuildRegressor(attrs); err != nil {
		t.Fatalf("BuildRegressor: %v", err)
	}
}

func TestBuildRegressorBadBaseValues(t *testing.T) {
	attrs := singleStumpRegressor()
	attrs.BaseValues = []float64{1, 2, 3} // n_targets=1, so only 0,1, or 1 are valid
	_, err := BuildRegressor(attrs)
	if !errors.Is(err, ErrBadBaseValues) {
		t.Fatalf("err = %v, want ErrBadBaseValues", err)
	}
}

func TestBuildRegressorUnknownMode(t *testing.T) {
	attrs := singleStumpRegressor()
	attrs.NodesModes[0] = "BRANCH_BOGUS"
	_, err := BuildRegressor(attrs)
	if !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("err = %v, want ErrUnknownMode", err)
	}
}

func TestBuildRegressorBadWeightTarget(t *testing.T) {
	attrs := singleStumpRegressor()
	attrs.TargetNodeIDs = []int64{1, 99} // node 99 does not exist
	_, err := BuildRegressor(attrs)
	if !errors.Is(err, ErrBadWeightTarget) {
		t.Fatalf("err = %v, want ErrBadWeightTarget", err)
	}
}

func TestBuildClassifierStringLabelsUnsupported(t *testing.T) {
	attrs := ClassifierAttributes{
		ClassLabelsStrings: []string{"a", "b"},
	}
	_, err := BuildClassifier(attrs)
	if !errors.Is(err, ErrStringLabelsUnsupported) {
		t.Fatalf("err = %v, want ErrStringLabelsUnsupported", err)
	}
}

func TestBuildRegressorHasMissingTracks(t *testing.T) {
	attrs := singleStumpRegressor()
	attrs.NodesMissingValueTracksTrue = []int64{1, 0, 0}
	e, err := BuildRegressor(attrs)
	if err != nil {
		t.Fatalf("BuildRegressor: %v", err)
	}
	if !e.HasMissingTracks {
		t.Errorf("HasMissingTracks = false, want true")
	}
}
