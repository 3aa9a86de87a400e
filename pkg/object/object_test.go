package object

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePreservesMemberOrder(t *testing.T) {
	n, err := Decode(strings.NewReader(`{"id":"root","@Walls":[],"@Floors":{"volume":1},"@Stairs":[],"name":"L1"}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "@Walls", "@Floors", "@Stairs", "name"}, n.Names())
	assert.Equal(t, []string{"@Walls", "@Floors", "@Stairs", "name"}, n.DynamicMemberNames())
	assert.Equal(t, "root", n.ID())
}

func TestDecodeNumbersAsFloat(t *testing.T) {
	n, err := Decode(strings.NewReader(`{"volume": 2, "area": 1.5, "label": "x"}`))
	require.NoError(t, err)

	v, ok := n.Float("volume")
	require.True(t, ok)
	assert.Equal(t, 2.0, v)

	a, ok := n.Float("area")
	require.True(t, ok)
	assert.Equal(t, 1.5, a)

	_, ok = n.Float("label")
	assert.False(t, ok, "string member should not read as float")
	_, ok = n.Float("missing")
	assert.False(t, ok)
}

func TestDecodeRejectsNonObject(t *testing.T) {
	_, err := Decode(strings.NewReader(`[1,2,3]`))
	assert.Error(t, err)
}

func TestElements(t *testing.T) {
	n, err := Decode(strings.NewReader(`{
		"@Single": {"volume": 1},
		"@List": [{"volume": 1}, {"volume": 2}],
		"@Empty": [],
		"@Mixed": [{"volume": 1}, 3],
		"name": "level"
	}`))
	require.NoError(t, err)

	single, ok := n.Elements("@Single")
	require.True(t, ok)
	assert.Len(t, single, 1)

	list, ok := n.Elements("@List")
	require.True(t, ok)
	assert.Len(t, list, 2)

	empty, ok := n.Elements("@Empty")
	require.True(t, ok)
	assert.Empty(t, empty)

	_, ok = n.Elements("name")
	assert.False(t, ok)

	assert.True(t, n.IsCollection("@Single"))
	assert.True(t, n.IsCollection("@Empty"))
	assert.False(t, n.IsCollection("@Mixed"))
	assert.False(t, n.IsCollection("name"))
}

func TestSetAppendsOnce(t *testing.T) {
	n := New()
	n.Set("a", 1.0)
	n.Set("b", 2.0)
	n.Set("a", 3.0)

	assert.Equal(t, []string{"a", "b"}, n.Names())
	v, _ := n.Float("a")
	assert.Equal(t, 3.0, v)
}

func TestMarshalJSONKeepsOrder(t *testing.T) {
	n := New()
	n.Set("z", 1.0)
	n.Set("a", "x")
	child := New()
	child.Set("volume", 2.0)
	n.Set("@Walls", []any{child})

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"x","@Walls":[{"volume":2}]}`, string(out))
}

const objectStream = "root\t{\"id\":\"root\",\"speckle_type\":\"Base\",\"@Walls\":[{\"speckle_type\":\"reference\",\"referencedId\":\"chunk1\"}],\"@Stairs\":{\"speckle_type\":\"reference\",\"referencedId\":\"s1\"},\"__closure\":{\"chunk1\":1,\"w1\":2,\"w2\":2,\"s1\":1}}\n" +
	"chunk1\t{\"id\":\"chunk1\",\"speckle_type\":\"Speckle.Core.Models.DataChunk\",\"data\":[{\"speckle_type\":\"reference\",\"referencedId\":\"w1\"},{\"speckle_type\":\"reference\",\"referencedId\":\"w2\"}]}\n" +
	"w1\t{\"id\":\"w1\",\"volume\":1.5}\n" +
	"w2\t{\"id\":\"w2\",\"volume\":2.5}\n" +
	"s1\t{\"id\":\"s1\",\"volume\":2}\n"

func TestReadObjectLinesAndRecompose(t *testing.T) {
	rootID, objects, err := ReadObjectLines(strings.NewReader(objectStream))
	require.NoError(t, err)
	assert.Equal(t, "root", rootID)
	assert.Len(t, objects, 5)

	root, err := DecodeObjects(rootID, objects)
	require.NoError(t, err)

	walls, ok := root.Elements("@Walls")
	require.True(t, ok)
	require.Len(t, walls, 2, "chunk should be flattened into its elements")
	assert.Equal(t, "w1", walls[0].ID())
	assert.Equal(t, "w2", walls[1].ID())

	stairs, ok := root.Child("@Stairs")
	require.True(t, ok)
	v, _ := stairs.Float("volume")
	assert.Equal(t, 2.0, v)
}

func TestLoadDetectsFormat(t *testing.T) {
	root, err := Load(strings.NewReader(objectStream))
	require.NoError(t, err)
	assert.Equal(t, "root", root.ID())

	nested, err := Load(strings.NewReader("\n  {\"id\":\"inline\",\"@Roof\":{\"volume\":3}}"))
	require.NoError(t, err)
	assert.Equal(t, "inline", nested.ID())
}

func TestDecodeObjectsMissingReference(t *testing.T) {
	objects := map[string]json.RawMessage{
		"root": json.RawMessage(`{"id":"root","@Walls":{"speckle_type":"reference","referencedId":"gone"}}`),
	}
	_, err := DecodeObjects("root", objects)
	require.Error(t, err)

	var missing *MissingObjectError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "gone", missing.ID)
}

func TestDecodeObjectsCycle(t *testing.T) {
	objects := map[string]json.RawMessage{
		"a": json.RawMessage(`{"id":"a","next":{"speckle_type":"reference","referencedId":"b"}}`),
		"b": json.RawMessage(`{"id":"b","next":{"speckle_type":"reference","referencedId":"a"}}`),
	}
	_, err := DecodeObjects("a", objects)
	assert.ErrorIs(t, err, ErrReferenceCycle)
}

func TestReadObjectLinesErrors(t *testing.T) {
	_, _, err := ReadObjectLines(strings.NewReader(""))
	assert.Error(t, err)

	_, _, err = ReadObjectLines(strings.NewReader("no-separator-here\n"))
	assert.Error(t, err)
}

func TestTrimDetach(t *testing.T) {
	assert.Equal(t, "Windows", TrimDetach("@Windows"))
	assert.Equal(t, "Windows", TrimDetach("Windows"))
}

func TestFloats(t *testing.T) {
	n, err := Decode(strings.NewReader(`{"vertices":[0,1,2.5],"mixed":[1,"a"],"scalar":3}`))
	require.NoError(t, err)

	v, ok := n.Floats("vertices")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 2.5}, v)

	_, ok = n.Floats("mixed")
	assert.False(t, ok)
	_, ok = n.Floats("scalar")
	assert.False(t, ok)
}

func TestLoadObjectArray(t *testing.T) {
	doc := `[
		{"id":"root","@Walls":[{"speckle_type":"reference","referencedId":"w1"}],"__closure":{"w1":1}},
		{"id":"w1","volume":1.5}
	]`
	root, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "root", root.ID())

	walls, ok := root.Elements("@Walls")
	require.True(t, ok)
	require.Len(t, walls, 1)
	v, _ := walls[0].Float("volume")
	assert.Equal(t, 1.5, v)
}

func TestReadObjectArrayErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", `[]`},
		{"no id", `[{"volume":1}]`},
		{"scalar entry", `[{"id":"a"}, 3]`},
		{"truncated", `[{"id":"a"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			assert.Error(t, err)
			assert.NotContains(t, err.Error(), "separator", "array input must not be parsed as a line stream")
		})
	}
}
