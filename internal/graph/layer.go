package graph

// NodeSummary is the slimmed-down view of a planning node that can be
// embedded in a prompt.
type NodeSummary struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Layer is a named grouping of planning nodes, summarized for use as
// optional architecture context during prompt construction.
type Layer struct {
	Name      string        `json:"name"`
	NodeCount int           `json:"node_count"`
	Nodes     []NodeSummary `json:"nodes,omitempty"`
}

// TotalNodes sums node counts across layers.
func TotalNodes(layers []Layer) int {
	total := 0
	for _, l := range layers {
		total += l.NodeCount
	}
	return total
}
