package graphapi

// OutputTargets returns the IDs of the output nodes reached by an edge leaving
// the generate node, in edge order. A node connected twice is listed once.
func OutputTargets(g *Graph, generateID string) []string {
	retv := make([]string, 0)
	seen := make(map[string]struct{})
	for _, e := range g.OutgoingEdges(generateID) {
		tn := g.GetNodeById(e.Target)
		if tn == nil || !tn.AcceptsResults() {
			continue
		}
		if _, ok := seen[tn.ID]; ok {
			continue
		}
		seen[tn.ID] = struct{}{}
		retv = append(retv, tn.ID)
	}
	return retv
}

// ApplyResults replaces an output node's images with its own copy of the
// result and clears its loading flag.
func ApplyResults(n *Node, images []string) {
	n.Data.Images = append([]string(nil), images...)
	n.Data.IsLoading = false
}

// RouteResults writes the generated images into every output node connected
// to the generate node and returns the IDs of the nodes it touched. Output
// nodes that are not connected are left as they are.
func RouteResults(g *Graph, generateID string, images []string) []string {
	targets := OutputTargets(g, generateID)
	for _, id := range targets {
		ApplyResults(g.GetNodeById(id), images)
	}
	return targets
}
