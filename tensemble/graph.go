package tensemble

import (
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

// buildGraph renders the ensemble's node array as a Graphviz graph,
// adapted from the teacher's OneTree.recurrentDraw/DrawGraph: one
// subtree-walk per root, node labels carry the split rule or leaf weight
// count.
func buildGraph(e *Ensemble) (*graphviz.Graphviz, *cgraph.Graph, error) {
	gv := graphviz.New()
	graph, err := gv.Graph()
	if err != nil {
		return nil, nil, err
	}
	for _, root := range e.Roots {
		if err := recurrentDraw(graph, e, root, nil); err != nil {
			return nil, nil, err
		}
	}
	return gv, graph, nil
}

func recurrentDraw(g *cgraph.Graph, e *Ensemble, nodeIndex int, parent *cgraph.Node) error {
	n := e.Nodes[nodeIndex]
	current, err := g.CreateNode(fmt.Sprintf("t%d_n%d", n.ID.TreeID, n.ID.NodeID))
	if err != nil {
		return err
	}
	if parent != nil {
		if _, err := g.CreateEdge("", parent, current); err != nil {
			return err
		}
	}

	if n.isLeaf() {
		current.Set("label", fmt.Sprintf("leaf %d:%d\n%d weights", n.ID.TreeID, n.ID.NodeID, len(n.Weights)))
		current.Set("shape", "box")
		return nil
	}

	current.Set("label", fmt.Sprintf("%d:%d\nf%d %s %.3g", n.ID.TreeID, n.ID.NodeID, n.FeatureID, modeSymbol(n.Mode), n.Threshold))
	if err := recurrentDraw(g, e, n.TrueChild, current); err != nil {
		return err
	}
	return recurrentDraw(g, e, n.FalseChild, current)
}

// RenderEnsembleFile renders every tree in the ensemble to a single image
// file, adapted from the teacher's EBooster.RenderTrees.
func RenderEnsembleFile(e *Ensemble, format graphviz.Format, path string) error {
	gv, graph, err := buildGraph(e)
	if err != nil {
		return err
	}
	defer gv.Close()
	defer graph.Close()
	return gv.RenderFilename(graph, format, path)
}

func modeSymbol(m NodeMode) string {
	switch m {
	case ModeLeq:
		return "<="
	case ModeLt:
		return "<"
	case ModeGte:
		return ">="
	case ModeGt:
		return ">"
	case ModeEq:
		return "=="
	case ModeNeq:
		return "!="
	default:
		return "?"
	}
}
