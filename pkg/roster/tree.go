package roster

import (
	"fmt"
	"strconv"
	"strings"
)

// Tree is a nested organisation document:
//
//	name: engineering
//	network:
//	  name: Magnus
//	  type: person
//	  children:
//	    - name: Console
//	      type: team
//	      children:
//	        - name: Rex
//	        - name: Elliot
//
// People report to the nearest person above them. Members of a team
// report to the team's nearest person ancestor, which is how the team node
// ends up linked to its manager.
type Tree struct {
	Name    string    `json:"name" yaml:"name"`
	Network *TreeNode `json:"network" yaml:"network"`
}

// TreeNode is a person or a team with nested children.
type TreeNode struct {
	ID         string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string     `json:"name" yaml:"name"`
	Type       string     `json:"type,omitempty" yaml:"type,omitempty"`
	PictureURL string     `json:"picture_url,omitempty" yaml:"picture_url,omitempty"`
	Location   string     `json:"location,omitempty" yaml:"location,omitempty"`
	Children   []TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Node types of a TreeNode. An empty type is a person.
const (
	TypePerson = "person"
	TypeTeam   = "team"
)

// Records flattens the tree in depth-first order. Nodes without an id get
// one derived from their name; teams nested inside teams are rejected.
func (t Tree) Records() ([]Record, error) {
	records := []Record{}
	if t.Network == nil {
		return records, nil
	}
	f := flattener{used: make(map[string]int)}
	if err := f.walk(*t.Network, "", "", &records); err != nil {
		return nil, err
	}
	return records, nil
}

type flattener struct {
	used map[string]int
}

func (f *flattener) walk(n TreeNode, manager, team string, out *[]Record) error {
	switch strings.ToLower(n.Type) {
	case "", TypePerson:
		id := f.id(n)
		*out = append(*out, Record{
			ID:         id,
			Name:       n.Name,
			PictureURL: n.PictureURL,
			Location:   n.Location,
			Team:       team,
			Parent:     manager,
		})
		next := id
		if team != "" {
			// Members keep reporting to the team's manager.
			next = manager
		}
		for _, c := range n.Children {
			if err := f.walk(c, next, team, out); err != nil {
				return err
			}
		}
	case TypeTeam:
		if team != "" {
			return fmt.Errorf("team %q nested inside team %q", n.Name, team)
		}
		name := n.Name
		if name == "" {
			name = n.ID
		}
		for _, c := range n.Children {
			if err := f.walk(c, manager, name, out); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("node %q: unknown type %q", n.Name, n.Type)
	}
	return nil
}

// id returns the node's id, or a unique slug of its name.
func (f *flattener) id(n TreeNode) string {
	base := n.ID
	if base == "" {
		base = Slug(n.Name)
	}
	if base == "" {
		base = "person"
	}
	f.used[base]++
	if n.ID != "" || f.used[base] == 1 {
		return base
	}
	return base + "-" + strconv.Itoa(f.used[base])
}

// Slug lowercases s and replaces runs of anything but letters and digits
// with a single hyphen.
func Slug(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
