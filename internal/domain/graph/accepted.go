package graph

// Accepted is the analyser's positive outcome: the fully annotated
// capability graph, plus whether the Lethal Trifecta / Deadly Duo checks
// were bypassed via --allow-unsafe (steps 1–3 and 6 always ran regardless).
type Accepted struct {
	Graph             *Graph
	PolicyChecksSkipped bool
}
