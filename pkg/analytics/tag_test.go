package analytics

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTagAttachesMappingValues(t *testing.T) {
	root := mustDecode(t, `{"@Stairs": {"volume": 2}, "@Floors": [{"volume": 1}, {"volume": 3}], "@Furniture": [{"volume": 1}]}`)
	report, err := Tag(root, stairsAndWindows())
	if err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if len(report.Info) != 2 {
		t.Errorf("info = %d, want 2", len(report.Info))
	}
	if len(report.Warnings) != 1 {
		t.Errorf("warnings = %d, want 1 for unmapped Furniture", len(report.Warnings))
	}

	stairs, _ := root.Child("@Stairs")
	if m, _ := stairs.String(TagMaterial); m != "Steel" {
		t.Errorf("stairs material = %q, want Steel", m)
	}
	if d, _ := stairs.Float(TagDensity); d != 7800 {
		t.Errorf("stairs density = %v, want 7800", d)
	}

	floors, _ := root.Elements("@Floors")
	for i, f := range floors {
		if c, _ := f.Float(TagEmbodiedCarbon); c != 0.159 {
			t.Errorf("floor %d carbon = %v, want 0.159", i, c)
		}
	}

	furniture, _ := root.Elements("@Furniture")
	if _, ok := furniture[0].Get(TagMaterial); ok {
		t.Error("unmapped category should not be tagged")
	}
}

func TestTagThenAggregate(t *testing.T) {
	root := mustDecode(t, `{"@Stairs": [{"volume": 2}]}`)
	if _, err := Tag(root, stairsAndWindows()); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	res, err := Aggregate(root, stairsAndWindows())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !approx(res.Rows[0].TotalEmbodiedCarbon, 2028) {
		t.Errorf("carbon = %v, want 2028", res.Rows[0].TotalEmbodiedCarbon)
	}

	out, err := json.Marshal(root)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"@Stairs":[{"volume":2,"@material":"Steel","@density":7800,"@embodied_carbon":0.13}]}`
	if string(out) != want {
		t.Errorf("tagged tree = %s, want %s", out, want)
	}
}

func TestTagStrict(t *testing.T) {
	a := stairsAndWindows()
	a.Strict = true
	_, err := Tag(mustDecode(t, `{"@Furniture": []}`), a)
	var unknown *UnknownCategoryError
	if !errors.As(err, &unknown) {
		t.Errorf("err = %v, want *UnknownCategoryError", err)
	}
}
