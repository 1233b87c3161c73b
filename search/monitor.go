package search

import (
	"github.com/poiesic/lexindex/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(dimension int)
	Finish(matches []*core.SearchMatch)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)               {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)    {}
func (n *noopMonitor) Finish(_ []*core.SearchMatch) {}
