package analytics

import "github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/object"

// Member names that carry geometry on an element.
const (
	memberPoints       = "Vertices"
	memberFlatVertices = "vertices"
	memberDisplayValue = "displayValue"
)

// appendVertices flattens the element's geometry into samples. Points come
// from a Vertices list of {x,y,z} nodes, a flat vertices coordinate list, or
// meshes held in displayValue.
func appendVertices(out []VertexSample, el *object.Node, label string) []VertexSample {
	out = appendGeometry(out, el, label)
	for _, name := range []string{memberDisplayValue, object.DetachPrefix + memberDisplayValue} {
		meshes, ok := el.Elements(name)
		if !ok {
			continue
		}
		for _, mesh := range meshes {
			out = appendGeometry(out, mesh, label)
		}
	}
	return out
}

func appendGeometry(out []VertexSample, n *object.Node, label string) []VertexSample {
	if points, ok := n.Elements(memberPoints); ok {
		for _, p := range points {
			x, okX := p.Float("x")
			y, okY := p.Float("y")
			z, okZ := p.Float("z")
			if okX && okY && okZ {
				out = append(out, VertexSample{X: x, Y: y, Z: z, Element: label})
			}
		}
	}
	if flat, ok := n.Floats(memberFlatVertices); ok {
		for i := 0; i+2 < len(flat); i += 3 {
			out = append(out, VertexSample{X: flat[i], Y: flat[i+1], Z: flat[i+2], Element: label})
		}
	}
	return out
}
