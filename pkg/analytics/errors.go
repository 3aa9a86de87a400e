package analytics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/validation"
)

// ErrInvalidDepth is returned when the area-based category is present but
// the depth constant is not positive.
var ErrInvalidDepth = errors.New("analysis depth_constant must be positive")

// MissingAttributeError reports an element without the numeric attribute
// its category requires (area for the area-based category, volume otherwise).
type MissingAttributeError struct {
	Category  string
	Index     int
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("%s element %d: missing numeric %q attribute", e.Category, e.Index, e.Attribute)
}

// InvalidAttributeError reports a negative physical quantity on an element.
type InvalidAttributeError struct {
	Category  string
	Index     int
	Attribute string
	Value     float64
}

func (e *InvalidAttributeError) Error() string {
	return fmt.Sprintf("%s element %d: %q is %g, want >= 0", e.Category, e.Index, e.Attribute, e.Value)
}

// UnknownCategoryError is returned in strict mode for a category slot with
// no material mapping.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("category %q has no material mapping", e.Category)
}

// EmptyInputError means the root held no recognized category. The result
// returned alongside it is empty but usable.
type EmptyInputError struct {
	Skipped []string
}

func (e *EmptyInputError) Error() string {
	if len(e.Skipped) == 0 {
		return "model has no recognized element categories"
	}
	return fmt.Sprintf("model has no recognized element categories (skipped: %s)", strings.Join(e.Skipped, ", "))
}

// Finding describes an aggregation error as a validation result pointing
// at the offending element. The second result is false for errors that do
// not come from the input tree.
func Finding(err error) (validation.Result, bool) {
	var (
		missing *MissingAttributeError
		invalid *InvalidAttributeError
		unknown *UnknownCategoryError
	)
	switch {
	case errors.As(err, &missing):
		return validation.Result{
			Level:    validation.LevelInput,
			Severity: validation.SeverityError,
			Message:  missing.Error(),
			SpecPath: "analysis.categories",
			Element:  elementRef(missing.Category, missing.Index),
			Expected: fmt.Sprintf("element with numeric %q", missing.Attribute),
		}, true
	case errors.As(err, &invalid):
		return validation.Result{
			Level:       validation.LevelInput,
			Severity:    validation.SeverityError,
			Message:     invalid.Error(),
			Element:     elementRef(invalid.Category, invalid.Index),
			ActualValue: invalid.Value,
			Expected:    ">= 0",
		}, true
	case errors.As(err, &unknown):
		return validation.Result{
			Level:       validation.LevelInput,
			Severity:    validation.SeverityError,
			Message:     unknown.Error(),
			SpecPath:    "analysis.categories",
			ActualValue: unknown.Category,
			Suggestions: []string{fmt.Sprintf("Add %s to analysis.categories or disable analysis.strict", unknown.Category)},
		}, true
	default:
		return validation.Result{}, false
	}
}

func elementRef(category string, index int) string {
	return fmt.Sprintf("%s[%d]", category, index)
}
