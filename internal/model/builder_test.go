package model

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tasador/pkg/api"
)

func TestBuilder_BuildPreservesColumnOrder(t *testing.T) {
	builder := New(Options{})
	form, err := builder.Build(api.Experiment{
		ID:              "exp-1",
		Nombre:          "Casas",
		ColumnaObjetivo: "precio",
		ColumnasEntrada: []string{"precio_m2", "zona", "garaje"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if diff := cmp.Diff([]string{"precio_m2", "zona", "garaje"}, form.Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}

	price, _ := form.Field("precio_m2")
	if price.Kind != FieldKindNumeric || price.Placeholder != "150000" || price.Label != "Precio M2" {
		t.Fatalf("unexpected price field %+v", price)
	}
	zone, _ := form.Field("zona")
	if zone.Kind != FieldKindEnumerated || len(zone.Options) != 6 {
		t.Fatalf("unexpected zone field %+v", zone)
	}
	garage, _ := form.Field("garaje")
	if garage.Kind != FieldKindEnumerated || len(garage.Options) != 3 {
		t.Fatalf("unexpected garage field %+v", garage)
	}
	if label, ok := garage.OptionLabel("1"); !ok || label != "Sí" {
		t.Fatalf("unexpected option label %q", label)
	}
}

func TestBuilder_BuildRejectsInvalidExperiments(t *testing.T) {
	builder := New(Options{})
	cases := map[string]api.Experiment{
		"experiment id is required": {ColumnasEntrada: []string{"a"}},
		"declares no input columns": {ID: "exp"},
		"is empty":                  {ID: "exp", ColumnasEntrada: []string{"a", " "}},
		"repeats column":            {ID: "exp", ColumnasEntrada: []string{"a", "a"}},
	}
	for want, exp := range cases {
		_, err := builder.Build(exp)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error containing %q, got %v", want, err)
		}
	}
}

func TestBuilder_CustomLabeler(t *testing.T) {
	builder := New(Options{Labeler: strings.ToUpper})
	form, err := builder.Build(api.Experiment{ID: "exp", ColumnasEntrada: []string{"zona"}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if form.Fields[0].Label != "ZONA" {
		t.Fatalf("unexpected label %q", form.Fields[0].Label)
	}
}
