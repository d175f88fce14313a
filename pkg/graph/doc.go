// Package graph provides the org chart data model and its wire formats.
//
// # Core Types
//
//   - [Graph]: top-level [Node] values plus [Link] values between them
//   - [Node]: a tagged union of [Person] and [Team], discriminated by [Kind]
//   - [Frame]: a per-tick layout snapshot produced by the layout engine
//
// A team's members are not top-level nodes; links always refer to
// top-level ids. Ids must be unique across top-level nodes and all team
// members; [Graph.Duplicates] reports violations.
//
// # Graph Serialization
//
// Graphs use a node-link JSON format with an explicit kind:
//
//	{
//	  "nodes": [
//	    {"kind": "person", "id": "1", "name": "Ada Lovelace"},
//	    {"kind": "team", "id": "team:compilers", "name": "Compilers",
//	     "children": [{"id": "2", "name": "Grace Hopper"}]}
//	  ],
//	  "links": [{"source": "1", "target": "team:compilers"}]
//	}
//
// # Frame Serialization
//
// Frames are streamed to browsers as compact JSON with [MarshalFrame].
// Member coordinates are relative to the team centre.
package graph
