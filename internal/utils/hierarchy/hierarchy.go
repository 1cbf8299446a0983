package hierarchy

import (
	"context"
	"fmt"
)

// MaxDepth bounds every ancestor walk. Forests deeper than this are treated as
// malformed: walks fail closed instead of looping.
const MaxDepth = 100

// ErrDepthExceeded is returned when an ancestor chain exceeds MaxDepth, which
// only happens when stored parent edges already contain a cycle or the data is
// otherwise corrupt.
var ErrDepthExceeded = fmt.Errorf("ancestor chain exceeds %d levels", MaxDepth)

// ParentLookup resolves a node id to its parent id. An empty string means the
// node is a root. Lookups run against whatever snapshot the caller is holding,
// so a repository can pass a transaction-scoped resolver and a test can pass a
// map-backed one.
type ParentLookup func(ctx context.Context, id string) (string, error)

// WouldCreateCycle reports whether setting nodeID's parent to candidateParentID
// would make nodeID an ancestor of itself. It walks up from the candidate
// parent; finding nodeID on that path means the candidate is a descendant of
// nodeID. The walk is bounded by MaxDepth.
func WouldCreateCycle(ctx context.Context, lookup ParentLookup, nodeID, candidateParentID string) (bool, error) {
	current := candidateParentID
	for depth := 0; current != ""; depth++ {
		if depth >= MaxDepth {
			return false, ErrDepthExceeded
		}
		if current == nodeID {
			return true, nil
		}
		parent, err := lookup(ctx, current)
		if err != nil {
			return false, err
		}
		current = parent
	}
	return false, nil
}

// Node is the minimal shape tree builders need from a forest member.
type Node struct {
	ID       string
	ParentID string
}

// ChildIndex groups node ids by parent id for nested tree construction.
// Nodes whose parent id is unknown (dangling edges) are attached to the roots
// so malformed data stays visible instead of disappearing.
func ChildIndex(nodes []Node) map[string][]string {
	known := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		known[n.ID] = struct{}{}
	}
	index := make(map[string][]string)
	for _, n := range nodes {
		parent := n.ParentID
		if parent != "" {
			if _, ok := known[parent]; !ok {
				parent = ""
			}
		}
		index[parent] = append(index[parent], n.ID)
	}
	return index
}
