package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func optionValues(field Field) []string {
	out := make([]string, 0, len(field.Options))
	for _, opt := range field.Options {
		out = append(out, opt.Value)
	}
	return out
}

func TestInferField_BinaryFlags(t *testing.T) {
	for _, column := range []string{"garaje", "tiene_ascensor", "Balcon", "CALEFACCION_central", "aire_acondicionado"} {
		field := InferField(column)
		if field.Kind != FieldKindEnumerated {
			t.Fatalf("%s: expected enumerated, got %s", column, field.Kind)
		}
		if diff := cmp.Diff([]string{"", "0", "1"}, optionValues(field)); diff != "" {
			t.Fatalf("%s: option values mismatch (-want +got):\n%s", column, diff)
		}
		if field.Options[0] != PlaceholderOption {
			t.Fatalf("%s: first option must be the placeholder, got %+v", column, field.Options[0])
		}
		if field.Placeholder != "" {
			t.Fatalf("%s: enumerated fields carry no placeholder, got %q", column, field.Placeholder)
		}
	}
}

func TestInferField_EnumeratedGroups(t *testing.T) {
	cases := []struct {
		column string
		group  string
		values []string
		labels []string
	}{
		{"estado_conservacion", "condition", []string{"", "1", "2", "3", "4"}, []string{"Seleccionar", "Malo", "Regular", "Bueno", "Excelente"}},
		{"calidad_construccion", "condition", []string{"", "1", "2", "3", "4"}, nil},
		{"orientacion", "orientation", []string{"", "1", "2", "3", "4"}, []string{"Seleccionar", "Norte", "Sur", "Este", "Oeste"}},
		{"zona", "zone", []string{"", "1", "2", "3", "4", "5"}, []string{"Seleccionar", "Centro", "Residencial Alta", "Residencial Media", "Periférica", "Rural"}},
		{"Region", "zone", []string{"", "1", "2", "3", "4", "5"}, nil},
		{"distrito_postal", "zone", []string{"", "1", "2", "3", "4", "5"}, nil},
	}
	for _, tc := range cases {
		field := InferField(tc.column)
		if field.Kind != FieldKindEnumerated || field.Group != tc.group {
			t.Fatalf("%s: expected enumerated/%s, got %s/%s", tc.column, tc.group, field.Kind, field.Group)
		}
		if diff := cmp.Diff(tc.values, optionValues(field)); diff != "" {
			t.Fatalf("%s: values mismatch (-want +got):\n%s", tc.column, diff)
		}
		if tc.labels == nil {
			continue
		}
		labels := make([]string, 0, len(field.Options))
		for _, opt := range field.Options {
			labels = append(labels, opt.Label)
		}
		if diff := cmp.Diff(tc.labels, labels); diff != "" {
			t.Fatalf("%s: labels mismatch (-want +got):\n%s", tc.column, diff)
		}
	}
}

func TestInferField_NumericPlaceholders(t *testing.T) {
	cases := map[string]string{
		"precio_m2":          "150000",
		"area_total":         "100",
		"superficie_m2":      "100",
		"num_habitaciones":   "3",
		"num_banos":          "2",
		"año_construccion":   "2015",
		"ano":                "2015",
		"distancia_centro":   "5.5",
		"piso":               "3",
		"planta":             "5",
		"costo_comunidad":    "0",
		"fecha_venta":        "0",
		"proximidad_escuela": "0",
		"xyz":                "0",
	}
	for column, want := range cases {
		field := InferField(column)
		if field.Kind != FieldKindNumeric {
			t.Fatalf("%s: expected numeric, got %s", column, field.Kind)
		}
		if field.Placeholder != want {
			t.Fatalf("%s: placeholder want %q got %q", column, want, field.Placeholder)
		}
		if len(field.Options) != 0 {
			t.Fatalf("%s: numeric fields carry no options", column)
		}
	}
}

func TestInferField_UnknownDefaultsToNumericZero(t *testing.T) {
	field := InferField("proximidad_transporte")
	if field.Kind != FieldKindNumeric || field.Placeholder != DefaultPlaceholder || field.Group != "" {
		t.Fatalf("unexpected field %+v", field)
	}
}

func TestInferField_NumericGroupsWinOverEnumerated(t *testing.T) {
	// The table is consulted in order, so a name carrying both a zone and a
	// price keyword resolves to the price group.
	field := InferField("zona_precio")
	if field.Kind != FieldKindNumeric || field.Group != "price" {
		t.Fatalf("expected price group, got %+v", field)
	}
	if field.Placeholder != "150000" {
		t.Fatalf("unexpected placeholder %q", field.Placeholder)
	}

	field = InferField("garaje_zona")
	if field.Group != "binary" {
		t.Fatalf("expected binary group to win over zone, got %q", field.Group)
	}
}

func TestInferrer_CustomTable(t *testing.T) {
	inferrer := NewInferrer(Options{
		Keywords: []KeywordGroup{{
			Name:     "pool",
			Kind:     FieldKindEnumerated,
			Keywords: []string{"PISCINA"},
			Options:  []EnumOption{{Value: "0", Label: "No"}, {Value: "1", Label: "Sí"}},
		}},
		Placeholders: []PlaceholderRule{{Keywords: []string{"jardin"}, Value: "25"}},
	})

	pool := inferrer.Infer("piscina")
	if pool.Kind != FieldKindEnumerated || len(pool.Options) != 3 {
		t.Fatalf("unexpected pool field %+v", pool)
	}

	garden := inferrer.Infer("area_jardin")
	if garden.Kind != FieldKindNumeric || garden.Placeholder != "25" {
		t.Fatalf("unexpected garden field %+v", garden)
	}

	garage := inferrer.Infer("garaje")
	if garage.Kind != FieldKindNumeric {
		t.Fatalf("custom table should replace defaults, got %+v", garage)
	}
}
