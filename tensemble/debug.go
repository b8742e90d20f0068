package tensemble

import (
	"fmt"
	"strings"
)

// DebugString is a plain-text per-node dump of the constructed ensemble,
// independent of the Graphviz renderer — useful for diagnosing a misbuilt
// ensemble from an assertion failure in tests, adapted from the original
// runtime's debug_threshold introspection.
func (e *Ensemble) DebugString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "roots=%d nodes=%d sameMode=%v hasMissingTracks=%v\n",
		len(e.Roots), len(e.Nodes), e.SameMode, e.HasMissingTracks)
	for i, n := range e.Nodes {
		if n.isLeaf() {
			fmt.Fprintf(&b, "  [%d] leaf tree=%d node=%d weights=%v\n", i, n.ID.TreeID, n.ID.NodeID, n.Weights)
			continue
		}
		fmt.Fprintf(&b, "  [%d] tree=%d node=%d feature=%d mode=%s threshold=%g true=%d false=%d missing=%v\n",
			i, n.ID.TreeID, n.ID.NodeID, n.FeatureID, modeSymbol(n.Mode), n.Threshold, n.TrueChild, n.FalseChild, n.MissingTrack)
	}
	return b.String()
}
