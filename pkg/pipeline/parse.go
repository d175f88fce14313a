package pipeline

import (
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/roster"
)

// Parse builds the layout input named by opts. A preloaded opts.Graph is
// cloned; otherwise opts.Roster is read with [roster.LoadGraph], checking
// facility tags against opts.Locations.
func Parse(opts Options) (*graph.Graph, []roster.Record, []layout.Issue, error) {
	if opts.Graph != nil {
		g := opts.Graph.Clone()
		if g.Nodes == nil || g.Links == nil {
			return nil, nil, nil, errors.New(errors.ErrCodeMissingGraph, "graph has no node or link collection")
		}
		return g, nil, nil, nil
	}
	return roster.LoadGraph(opts.Roster, roster.WithLocations(graph.NewLocations(opts.Locations...)))
}
