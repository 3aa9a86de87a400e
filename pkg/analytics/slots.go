package analytics

import (
	"errors"
	"fmt"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/object"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/spec"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/validation"
)

// slot is one category member of the root with its mapping entry.
type slot struct {
	member   string
	label    string
	category spec.Category
	elements []*object.Node
}

// categorySlots walks the root's dynamic members in declaration order and
// returns the ones holding elements of a mapped category. Unmapped slots are
// reported as warnings and listed in skipped, or fail the call in strict mode.
func categorySlots(root *object.Node, a *spec.Analysis, report *validation.Report) (slots []slot, skipped []string, err error) {
	if a == nil {
		return nil, nil, errors.New("analysis configuration is nil")
	}
	if root == nil {
		return nil, nil, nil
	}

	mapping := a.Mapping()
	for _, name := range root.DynamicMemberNames() {
		label := object.TrimDetach(name)
		cat, ok := mapping[label]
		if !ok {
			if !root.IsCollection(name) {
				continue
			}
			if a.Strict {
				return nil, nil, &UnknownCategoryError{Category: label}
			}
			skipped = append(skipped, label)
			report.AddWarning(validation.Result{
				Level:       validation.LevelInput,
				Message:     fmt.Sprintf("category %q has no material mapping; skipped", label),
				SpecPath:    "analysis.categories",
				ActualValue: name,
				Suggestions: []string{fmt.Sprintf("Add %s to analysis.categories", label)},
			})
			continue
		}
		elements, err := mappedElements(root, name, label, a.IsAreaBased(label))
		if err != nil {
			return nil, nil, err
		}
		slots = append(slots, slot{member: name, label: label, category: cat, elements: elements})
	}
	return slots, skipped, nil
}

// mappedElements resolves the member of a mapped category. A null member is
// an empty category; anything that is not an element fails with
// *MissingAttributeError at its position.
func mappedElements(root *object.Node, name, label string, areaBased bool) ([]*object.Node, error) {
	attr := AttrVolume
	if areaBased {
		attr = AttrArea
	}
	v, _ := root.Get(name)
	switch x := v.(type) {
	case nil:
		return []*object.Node{}, nil
	case *object.Node:
		if x == nil {
			return []*object.Node{}, nil
		}
		return []*object.Node{x}, nil
	case []any:
		out := make([]*object.Node, 0, len(x))
		for i, item := range x {
			el, ok := item.(*object.Node)
			if !ok || el == nil {
				return nil, &MissingAttributeError{Category: label, Index: i, Attribute: attr}
			}
			out = append(out, el)
		}
		return out, nil
	default:
		return nil, &MissingAttributeError{Category: label, Index: 0, Attribute: attr}
	}
}
