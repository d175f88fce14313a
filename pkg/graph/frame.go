package graph

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Frame - Layout Snapshot
// =============================================================================

// Frame is a snapshot of the layout after a simulation tick.
//
// Top-level positions are absolute; team member positions are offsets from
// the team centre, so a member's absolute position is node + member.
type Frame struct {
	Tick  int            `json:"tick"`
	Alpha float64        `json:"alpha"`
	State string         `json:"state"`
	Nodes []NodePosition `json:"nodes"`
	Links []Link         `json:"links"` // Resolved links only
}

// NodePosition places a top-level node.
type NodePosition struct {
	ID      string           `json:"id"`
	Kind    Kind             `json:"kind"`
	X       float64          `json:"x"`
	Y       float64          `json:"y"`
	R       float64          `json:"r"`
	Members []MemberPosition `json:"members,omitempty"`
}

// MemberPosition places a team member relative to its team.
type MemberPosition struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	R  float64 `json:"r"`
}

// Find returns the top-level position with the given id.
func (f *Frame) Find(id string) (NodePosition, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodePosition{}, false
}

// Absolute returns the absolute position and radius of any id in the frame,
// resolving team members through their team.
func (f *Frame) Absolute(id string) (x, y, r float64, ok bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n.X, n.Y, n.R, true
		}
		for _, m := range n.Members {
			if m.ID == id {
				return n.X + m.X, n.Y + m.Y, m.R, true
			}
		}
	}
	return 0, 0, 0, false
}

// =============================================================================
// Frame Serialization API
// =============================================================================

// MarshalFrame serializes a frame to compact JSON bytes.
func MarshalFrame(f Frame) ([]byte, error) {
	if f.Nodes == nil {
		f.Nodes = []NodePosition{}
	}
	if f.Links == nil {
		f.Links = []Link{}
	}
	return json.Marshal(f)
}

// UnmarshalFrame deserializes JSON bytes into a frame.
func UnmarshalFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("unmarshal frame: %w", err)
	}
	return f, nil
}
