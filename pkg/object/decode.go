package object

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Speckle type names with special handling during recomposition.
const (
	TypeReference = "reference"
	TypeDataChunk = "Speckle.Core.Models.DataChunk"

	keyReferencedID = "referencedId"
	keyChunkData    = "data"
)

// MissingObjectError reports a reference to an object that was not received.
type MissingObjectError struct {
	ID string
}

func (e *MissingObjectError) Error() string {
	return fmt.Sprintf("object %s referenced but not received", e.ID)
}

// ErrReferenceCycle is returned when an object references itself through
// its own children.
var ErrReferenceCycle = errors.New("reference cycle in object graph")

// Decode reads a single JSON object into a Node tree, preserving member order.
// References are left as-is.
func Decode(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	n, ok := v.(*Node)
	if !ok {
		return nil, fmt.Errorf("decoding object: top-level value is %T, want object", v)
	}
	return n, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		return t.Float64()
	default:
		// string, bool, nil
		return t, nil
	}
}

func decodeObject(dec *json.Decoder) (*Node, error) {
	n := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, want string", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", key, err)
		}
		n.Set(key, v)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return n, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	out := []any{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, err
	}
	return out, nil
}

// ReadObjectLines parses the server's object stream, one `id<TAB>json`
// record per line. The first record's id is returned as the root.
func ReadObjectLines(r io.Reader) (string, map[string]json.RawMessage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64<<20)

	objects := make(map[string]json.RawMessage)
	rootID := ""
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		idx := bytes.IndexByte(line, '\t')
		if idx <= 0 {
			return "", nil, fmt.Errorf("object stream line %d: missing id separator", lineNo)
		}
		id := string(line[:idx])
		raw := make([]byte, len(line)-idx-1)
		copy(raw, line[idx+1:])
		objects[id] = raw
		if rootID == "" {
			rootID = id
		}
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("reading object stream: %w", err)
	}
	if rootID == "" {
		return "", nil, errors.New("object stream is empty")
	}
	return rootID, objects, nil
}

// DecodeObjects recomposes the tree rooted at rootID from a flat object
// table, replacing references with the objects they point to and
// flattening chunked lists.
func DecodeObjects(rootID string, objects map[string]json.RawMessage) (*Node, error) {
	r := &resolver{
		objects:   objects,
		resolved:  make(map[string]*Node, len(objects)),
		resolving: make(map[string]bool),
	}
	return r.resolve(rootID)
}

// ReadObjectArray parses the server's JSON object response: an array of
// objects, each carrying its id, with the root first.
func ReadObjectArray(r io.Reader) (string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(r)
	if tok, err := dec.Token(); err != nil {
		return "", nil, fmt.Errorf("reading object array: %w", err)
	} else if tok != json.Delim('[') {
		return "", nil, fmt.Errorf("reading object array: got %v, want '['", tok)
	}

	objects := make(map[string]json.RawMessage)
	rootID := ""
	for i := 0; dec.More(); i++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return "", nil, fmt.Errorf("object array entry %d: %w", i, err)
		}
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return "", nil, fmt.Errorf("object array entry %d: want an object: %w", i, err)
		}
		if head.ID == "" {
			return "", nil, fmt.Errorf("object array entry %d: missing %q", i, KeyID)
		}
		objects[head.ID] = raw
		if rootID == "" {
			rootID = head.ID
		}
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return "", nil, fmt.Errorf("reading object array: %w", err)
	}
	if rootID == "" {
		return "", nil, errors.New("object array is empty")
	}
	return rootID, objects, nil
}

// Load reads a single nested JSON document, a JSON array of objects, or an
// object line stream and returns the recomposed root.
func Load(r io.Reader) (*Node, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.Peek(1)
		if err != nil {
			return nil, fmt.Errorf("reading object input: %w", err)
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			if _, err := br.ReadByte(); err != nil {
				return nil, err
			}
			continue
		case '{':
			return Decode(br)
		case '[':
			rootID, objects, err := ReadObjectArray(br)
			if err != nil {
				return nil, err
			}
			return DecodeObjects(rootID, objects)
		}
		rootID, objects, err := ReadObjectLines(br)
		if err != nil {
			return nil, err
		}
		return DecodeObjects(rootID, objects)
	}
}

type resolver struct {
	objects   map[string]json.RawMessage
	resolved  map[string]*Node
	resolving map[string]bool
}

func (r *resolver) resolve(id string) (*Node, error) {
	if n, ok := r.resolved[id]; ok {
		return n, nil
	}
	if r.resolving[id] {
		return nil, fmt.Errorf("%w at %s", ErrReferenceCycle, id)
	}
	raw, ok := r.objects[id]
	if !ok {
		return nil, &MissingObjectError{ID: id}
	}

	r.resolving[id] = true
	defer delete(r.resolving, id)

	n, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}
	if err := r.linkNode(n); err != nil {
		return nil, err
	}
	r.resolved[id] = n
	return n, nil
}

func (r *resolver) linkNode(n *Node) error {
	for _, name := range n.names {
		if name == KeyClosure {
			continue
		}
		v, err := r.link(n.members[name])
		if err != nil {
			return fmt.Errorf("member %q: %w", name, err)
		}
		n.members[name] = v
	}
	return nil
}

func (r *resolver) link(v any) (any, error) {
	switch x := v.(type) {
	case *Node:
		if x.SpeckleType() == TypeReference {
			id, _ := x.String(keyReferencedID)
			return r.resolve(id)
		}
		if err := r.linkNode(x); err != nil {
			return nil, err
		}
		return x, nil
	case []any:
		out := make([]any, 0, len(x))
		for _, item := range x {
			linked, err := r.link(item)
			if err != nil {
				return nil, err
			}
			if chunk, ok := linked.(*Node); ok && chunk.SpeckleType() == TypeDataChunk {
				if data, ok := chunk.members[keyChunkData].([]any); ok {
					out = append(out, data...)
					continue
				}
			}
			out = append(out, linked)
		}
		return out, nil
	default:
		return v, nil
	}
}
