// Package object holds the deserialized model graph received from the
// collaboration server. A Node is a loosely typed bag of named members
// whose declaration order is preserved, mirroring how the server
// serializes dynamic properties.
package object

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Well-known member names set by the server on every object.
const (
	KeyID                 = "id"
	KeySpeckleType        = "speckle_type"
	KeyApplicationID      = "applicationId"
	KeyTotalChildrenCount = "totalChildrenCount"
	KeyClosure            = "__closure"
	KeyUnits              = "units"
)

// DetachPrefix marks members that are stored as separate objects on the server.
const DetachPrefix = "@"

var typedMembers = map[string]bool{
	KeyID:                 true,
	KeySpeckleType:        true,
	KeyApplicationID:      true,
	KeyTotalChildrenCount: true,
	KeyClosure:            true,
	KeyUnits:              true,
}

// Node is one object of the model graph.
type Node struct {
	names   []string
	members map[string]any
}

// New creates an empty node.
func New() *Node {
	return &Node{members: make(map[string]any)}
}

// ID returns the server-assigned object hash, or "" if unset.
func (n *Node) ID() string {
	s, _ := n.String(KeyID)
	return s
}

// SpeckleType returns the serialized type name, or "" if unset.
func (n *Node) SpeckleType() string {
	s, _ := n.String(KeySpeckleType)
	return s
}

// Names returns all member names in declaration order.
func (n *Node) Names() []string {
	out := make([]string, len(n.names))
	copy(out, n.names)
	return out
}

// DynamicMemberNames returns member names that are not set by the
// server itself, in declaration order.
func (n *Node) DynamicMemberNames() []string {
	out := make([]string, 0, len(n.names))
	for _, name := range n.names {
		if !typedMembers[name] {
			out = append(out, name)
		}
	}
	return out
}

// Get returns the raw member value.
func (n *Node) Get(name string) (any, bool) {
	v, ok := n.members[name]
	return v, ok
}

// Set assigns a member, appending it to the order if new.
func (n *Node) Set(name string, v any) {
	if n.members == nil {
		n.members = make(map[string]any)
	}
	if _, exists := n.members[name]; !exists {
		n.names = append(n.names, name)
	}
	n.members[name] = v
}

// Float returns a numeric member. Integers and json.Number are converted.
func (n *Node) Float(name string) (float64, bool) {
	v, ok := n.members[name]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Floats returns a member holding a list of numbers. The second result is
// false when the member is absent, not a list, or holds a non-number.
func (n *Node) Floats(name string) ([]float64, bool) {
	list, ok := n.members[name].([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(list))
	for i, item := range list {
		f, ok := toFloat(item)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// String returns a string member.
func (n *Node) String(name string) (string, bool) {
	v, ok := n.members[name].(string)
	return v, ok
}

// Child returns a member holding a single node.
func (n *Node) Child(name string) (*Node, bool) {
	v, ok := n.members[name].(*Node)
	return v, ok && v != nil
}

// Elements returns the nodes held by a member. A single node is returned
// as a one-element slice; non-node list entries are ignored. The second
// result is false when the member is absent or holds neither a node nor
// a list.
func (n *Node) Elements(name string) ([]*Node, bool) {
	switch v := n.members[name].(type) {
	case *Node:
		if v == nil {
			return nil, false
		}
		return []*Node{v}, true
	case []any:
		out := make([]*Node, 0, len(v))
		for _, item := range v {
			if child, ok := item.(*Node); ok && child != nil {
				out = append(out, child)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// IsCollection reports whether a member holds a node or a list whose
// entries are all nodes. Empty lists count as collections.
func (n *Node) IsCollection(name string) bool {
	switch v := n.members[name].(type) {
	case *Node:
		return v != nil
	case []any:
		for _, item := range v {
			if _, ok := item.(*Node); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the node with members in declaration order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range n.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(n.members[name])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// TrimDetach strips the detach prefix from a member name.
func TrimDetach(name string) string {
	return strings.TrimPrefix(name, DetachPrefix)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
