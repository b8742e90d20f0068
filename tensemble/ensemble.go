package tensemble

import "fmt"

// Ensemble is the immutable, constructed form of a tree ensemble: a
// contiguous node array plus root offsets and the aggregation policy. It is
// produced once by BuildClassifier/BuildRegressor and borrowed read-only by
// every inference call afterward.
type Ensemble struct {
	Nodes []Node
	Roots []int

	NTargets      int64
	BaseValues    []float64
	PostTransform PostTransform
	Aggregate     AggregateFunction

	// Classifier-only fields; zero-valued for a regressor ensemble.
	ClassLabels        []int64
	WeightsAllPositive bool
	ClassesSeen        map[int64]bool

	SameMode         bool
	HasMissingTracks bool
	MaxTreeDepth     int64
}

const defaultMaxTreeDepth = 1000

// commonAttributes holds the node-topology attribute arrays shared verbatim
// (same names, same shapes) between the classifier and regressor operator
// contracts.
type commonAttributes struct {
	NodesTreeIDs                []int64
	NodesNodeIDs                []int64
	NodesFeatureIDs             []int64
	NodesValues                 []float64
	NodesHitrates               []float64
	NodesModes                  []string
	NodesTrueNodeIDs            []int64
	NodesFalseNodeIDs           []int64
	NodesMissingValueTracksTrue []int64
	PostTransform               string
	BaseValues                  []float64
}

// ClassifierAttributes is the flat ONNX-ML TreeEnsembleClassifier attribute
// contract, field names matching the operator schema (see §6).
type ClassifierAttributes struct {
	BaseValues                  []float64 `json:"base_values,omitempty"`
	ClassIDs                    []int64   `json:"class_ids"`
	ClassNodeIDs                []int64   `json:"class_nodeids"`
	ClassTreeIDs                []int64   `json:"class_treeids"`
	ClassWeights                []float64 `json:"class_weights"`
	ClassLabelsInt64s           []int64   `json:"classlabels_int64s"`
	ClassLabelsStrings          []string  `json:"classlabels_strings,omitempty"`
	NodesFalseNodeIDs           []int64   `json:"nodes_falsenodeids"`
	NodesFeatureIDs             []int64   `json:"nodes_featureids"`
	NodesHitrates               []float64 `json:"nodes_hitrates"`
	NodesMissingValueTracksTrue []int64   `json:"nodes_missing_value_tracks_true,omitempty"`
	NodesModes                  []string  `json:"nodes_modes"`
	NodesNodeIDs                []int64   `json:"nodes_nodeids"`
	NodesTreeIDs                []int64   `json:"nodes_treeids"`
	NodesTrueNodeIDs            []int64   `json:"nodes_truenodeids"`
	NodesValues                 []float64 `json:"nodes_values"`
	PostTransform               string    `json:"post_transform"`
}

// RegressorAttributes is the flat ONNX-ML TreeEnsembleRegressor attribute
// contract.
type RegressorAttributes struct {
	AggregateFunction           string    `json:"aggregate_function"`
	BaseValues                  []float64 `json:"base_values,omitempty"`
	NTargets                    int64     `json:"n_targets"`
	NodesFalseNodeIDs           []int64   `json:"nodes_falsenodeids"`
	NodesFeatureIDs             []int64   `json:"nodes_featureids"`
	NodesHitrates               []float64 `json:"nodes_hitrates"`
	NodesMissingValueTracksTrue []int64   `json:"nodes_missing_value_tracks_true,omitempty"`
	NodesModes                  []string  `json:"nodes_modes"`
	NodesNodeIDs                []int64   `json:"nodes_nodeids"`
	NodesTreeIDs                []int64   `json:"nodes_treeids"`
	NodesTrueNodeIDs            []int64   `json:"nodes_truenodeids"`
	NodesValues                 []float64 `json:"nodes_values"`
	PostTransform               string    `json:"post_transform"`
	TargetIDs                   []int64   `json:"target_ids"`
	TargetNodeIDs               []int64   `json:"target_nodeids"`
	TargetTreeIDs               []int64   `json:"target_treeids"`
	TargetWeights               []float64 `json:"target_weights"`
}

// BuildClassifier constructs an Ensemble from a TreeEnsembleClassifier
// attribute bundle.
func BuildClassifier(attrs ClassifierAttributes) (*Ensemble, error) {
	if len(attrs.ClassLabelsStrings) > 0 {
		return nil, ErrStringLabelsUnsupported
	}

	common := commonAttributes{
		NodesTreeIDs:                attrs.NodesTreeIDs,
		NodesNodeIDs:                attrs.NodesNodeIDs,
		NodesFeatureIDs:             attrs.NodesFeatureIDs,
		NodesValues:                 attrs.NodesValues,
		NodesHitrates:               attrs.NodesHitrates,
		NodesModes:                  attrs.NodesModes,
		NodesTrueNodeIDs:            attrs.NodesTrueNodeIDs,
		NodesFalseNodeIDs:           attrs.NodesFalseNodeIDs,
		NodesMissingValueTracksTrue: attrs.NodesMissingValueTracksTrue,
		PostTransform:               attrs.PostTransform,
		BaseValues:                  attrs.BaseValues,
	}

	e, err := buildCore(common)
	if err != nil {
		return nil, err
	}

	if err := attachLeafWeights(e, attrs.ClassTreeIDs, attrs.ClassNodeIDs, attrs.ClassIDs, attrs.ClassWeights); err != nil {
		return nil, err
	}

	nClasses := int64(len(attrs.ClassLabelsInt64s))
	if err := validateBaseValues(len(e.BaseValues), nClasses); err != nil {
		return nil, err
	}

	e.NTargets = nClasses
	e.ClassLabels = attrs.ClassLabelsInt64s
	e.ClassesSeen = map[int64]bool{}
	allPositive := true
	for i, w := range attrs.ClassWeights {
		e.ClassesSeen[attrs.ClassIDs[i]] = true
		if w < 0 {
			allPositive = false
		}
	}
	e.WeightsAllPositive = allPositive

	return e, nil
}

// BuildRegressor constructs an Ensemble from a TreeEnsembleRegressor
// attribute bundle.
func BuildRegressor(attrs RegressorAttributes) (*Ensemble, error) {
	common := commonAttributes{
		NodesTreeIDs:                attrs.NodesTreeIDs,
		NodesNodeIDs:                attrs.NodesNodeIDs,
		NodesFeatureIDs:             attrs.NodesFeatureIDs,
		NodesValues:                 attrs.NodesValues,
		NodesHitrates:               attrs.NodesHitrates,
		NodesModes:                  attrs.NodesModes,
		NodesTrueNodeIDs:            attrs.NodesTrueNodeIDs,
		NodesFalseNodeIDs:           attrs.NodesFalseNodeIDs,
		NodesMissingValueTracksTrue: attrs.NodesMissingValueTracksTrue,
		PostTransform:               attrs.PostTransform,
		BaseValues:                  attrs.BaseValues,
	}

	e, err := buildCore(common)
	if err != nil {
		return nil, err
	}

	if err := attachLeafWeights(e, attrs.TargetTreeIDs, attrs.TargetNodeIDs, attrs.TargetIDs, attrs.TargetWeights); err != nil {
		return nil, err
	}

	if err := validateBaseValues(len(e.BaseValues), attrs.NTargets); err != nil {
		return nil, err
	}

	agg, err := parseAggregateFunction(orDefault(attrs.AggregateFunction, "SUM"))
	if err != nil {
		return nil, err
	}

	e.NTargets = attrs.NTargets
	e.Aggregate = agg
	return e, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func validateBaseValues(n int, nTargets int64) error {
	if n == 0 || n == 1 || int64(n) == nTargets {
		return nil
	}
	return ErrBadBaseValues
}

// buildCore runs the shared construction procedure (§4.2 steps 1-4, 6):
// mode parsing, node allocation, child-link resolution, root derivation,
// same_mode_/has_missing_tracks detection. Leaf weight attachment and
// classifier/regressor-specific fields are layered on by the caller.
func buildCore(a commonAttributes) (*Ensemble, error) {
	n := len(a.NodesTreeIDs)

	pt, err := parsePostTransform(orDefault(a.PostTransform, "NONE"))
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, n)
	index := make(map[NodeID]int, n)

	for i := 0; i < n; i++ {
		mode, err := parseNodeMode(a.NodesModes[i])
		if err != nil {
			return nil, wrapNodeError(err, i)
		}
		id := NodeID{TreeID: a.NodesTreeIDs[i], NodeID: a.NodesNodeIDs[i]}
		if _, dup := index[id]; dup {
			return nil, wrapNodeError(ErrDuplicateNode, i)
		}
		index[id] = i

		mt := MissingTrack(MissingNone)
		if len(a.NodesMissingValueTracksTrue) == n && a.NodesMissingValueTracksTrue[i] != 0 {
			mt = MissingTrue
		}

		nodes[i] = Node{
			ID:           id,
			FeatureID:    a.NodesFeatureIDs[i],
			Threshold:    a.NodesValues[i],
			Hitrate:      valueAt(a.NodesHitrates, i),
			Mode:         mode,
			MissingTrack: mt,
			TrueChild:    -1,
			FalseChild:   -1,
		}
	}

	for i := 0; i < n; i++ {
		if nodes[i].isLeaf() {
			continue
		}
		treeID := nodes[i].ID.TreeID

		trueID := NodeID{TreeID: treeID, NodeID: a.NodesTrueNodeIDs[i]}
		falseID := NodeID{TreeID: treeID, NodeID: a.NodesFalseNodeIDs[i]}

		if a.NodesTrueNodeIDs[i] == nodes[i].ID.NodeID {
			return nil, wrapNodeError(ErrSelfLoop, i)
		}
		if a.NodesFalseNodeIDs[i] == nodes[i].ID.NodeID {
			return nil, wrapNodeError(ErrSelfLoop, i)
		}

		trueIdx, ok := index[trueID]
		if !ok {
			return nil, wrapNodeError(ErrDanglingChild, i)
		}
		falseIdx, ok := index[falseID]
		if !ok {
			return nil, wrapNodeError(ErrDanglingChild, i)
		}
		nodes[i].TrueChild = trueIdx
		nodes[i].FalseChild = falseIdx
	}

	var roots []int
	var lastTree int64
	haveLast := false
	for i := 0; i < n; i++ {
		if !haveLast || nodes[i].ID.TreeID != lastTree {
			roots = append(roots, i)
			lastTree = nodes[i].ID.TreeID
			haveLast = true
		}
	}

	sameMode := true
	var firstMode NodeMode
	haveFirstMode := false
	hasMissingTracks := len(a.NodesMissingValueTracksTrue) == n
	anyMissingTrack := false
	for i := 0; i < n; i++ {
		if nodes[i].isLeaf() {
			continue
		}
		if !haveFirstMode {
			firstMode = nodes[i].Mode
			haveFirstMode = true
		} else if nodes[i].Mode != firstMode {
			sameMode = false
		}
		if nodes[i].MissingTrack == MissingTrue {
			anyMissingTrack = true
		}
	}
	hasMissingTracks = hasMissingTracks && anyMissingTrack

	return &Ensemble{
		Nodes:            nodes,
		Roots:            roots,
		BaseValues:       a.BaseValues,
		PostTransform:    pt,
		SameMode:         sameMode,
		HasMissingTracks: hasMissingTracks,
		MaxTreeDepth:     defaultMaxTreeDepth,
	}, buildIndexCheck(index, nodes)
}

// buildIndexCheck is a defensive pass confirming every index entry still
// resolves to the node it was inserted for; it can only fail if buildCore
// has an internal bug; kept as a cheap assertion rather than a panic so the
// construction-error contract stays uniform.
func buildIndexCheck(index map[NodeID]int, nodes []Node) error {
	for id, i := range index {
		if nodes[i].ID != id {
			return fmt.Errorf("tensemble: internal inconsistency at node %d", i)
		}
	}
	return nil
}

func valueAt(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

// attachLeafWeights appends (target_index, value) pairs to their owning
// leaf node, in the order leaf descriptors are supplied (§4.2 step 5).
func attachLeafWeights(e *Ensemble, treeIDs, nodeIDs, targetIDs []int64, weights []float64) error {
	index := make(map[NodeID]int, len(e.Nodes))
	for i, n := range e.Nodes {
		index[n.ID] = i
	}
	for k := range treeIDs {
		id := NodeID{TreeID: treeIDs[k], NodeID: nodeIDs[k]}
		i, ok := index[id]
		if !ok {
			return wrapNodeError(ErrBadWeightTarget, k)
		}
		e.Nodes[i].Weights = append(e.Nodes[i].Weights, SparseWeight{
			Target: targetIDs[k],
			Value:  weights[k],
		})
	}
	return nil
}
