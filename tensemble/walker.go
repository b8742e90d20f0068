package tensemble

// descend walks from root to a leaf against feature row x, honoring
// max_tree_depth as a safety clamp (§4.3): exceeding it stops descent at
// the current (branch) node, which then contributes no weights.
func descend(nodes []Node, root int, x []float64, maxDepth int64) *Node {
	cur := root
	for depth := int64(0); depth < maxDepth; depth++ {
		n := &nodes[cur]
		if n.isLeaf() {
			return n
		}
		v := x[n.FeatureID]
		if n.takeTrue(v) {
			cur = n.TrueChild
		} else {
			cur = n.FalseChild
		}
	}
	return &nodes[cur]
}

// descendSameComparator is the same_mode_ specialization (§4.3
// "Optimization"): the comparator is hoisted out of the loop so every
// iteration skips the mode switch. It is only valid when Ensemble.SameMode
// is true and Ensemble.HasMissingTracks is false, and the caller must
// supply the comparator matching that shared mode.
func descendSameComparator(nodes []Node, root int, x []float64, maxDepth int64, cmp func(v, threshold float64) bool) *Node {
	cur := root
	for depth := int64(0); depth < maxDepth; depth++ {
		n := &nodes[cur]
		if n.isLeaf() {
			return n
		}
		if cmp(x[n.FeatureID], n.Threshold) {
			cur = n.TrueChild
		} else {
			cur = n.FalseChild
		}
	}
	return &nodes[cur]
}

func comparatorFor(mode NodeMode) func(v, threshold float64) bool {
	switch mode {
	case ModeLeq:
		return func(v, t float64) bool { return v <= t }
	case ModeLt:
		return func(v, t float64) bool { return v < t }
	case ModeGte:
		return func(v, t float64) bool { return v >= t }
	case ModeGt:
		return func(v, t float64) bool { return v > t }
	case ModeEq:
		return func(v, t float64) bool { return v == t }
	case ModeNeq:
		return func(v, t float64) bool { return v != t }
	default:
		return func(v, t float64) bool { return false }
	}
}

// walkRow descends every root for one feature row and accumulates the
// reached leaves' weights into scratch via the ensemble's aggregate
// function.
func walkRow(e *Ensemble, x []float64, s *scratch) {
	if e.SameMode && !e.HasMissingTracks && len(e.Roots) > 0 {
		cmp := comparatorFor(firstBranchMode(e))
		for _, root := range e.Roots {
			leaf := descendSameComparator(e.Nodes, root, x, e.MaxTreeDepth, cmp)
			e.Aggregate.accumulate(s, leaf.Weights)
		}
		return
	}
	for _, root := range e.Roots {
		leaf := descend(e.Nodes, root, x, e.MaxTreeDepth)
		e.Aggregate.accumulate(s, leaf.Weights)
	}
}

func firstBranchMode(e *Ensemble) NodeMode {
	for _, n := range e.Nodes {
		if !n.isLeaf() {
			return n.Mode
		}
	}
	return ModeLeq
}
