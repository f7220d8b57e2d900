package schema

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-tasador/pkg/model"
	"github.com/goliatone/go-tasador/pkg/predict"
)

const (
	// PredictPath is the backend route the document describes.
	PredictPath = "/api/prediccion"

	requestSchemaName = "PredictionRequest"
	resultSchemaName  = "PredictionResult"
	errorSchemaName   = "Error"
)

// Document builds an OpenAPI document for POST /api/prediccion restricted to
// the given model: experimento_id must be the model id and datos must carry
// one number per input column.
func Document(form model.FormModel) (*openapi3.T, error) {
	if strings.TrimSpace(form.ExperimentID) == "" {
		return nil, fmt.Errorf("schema: form has no experiment id")
	}
	if len(form.Fields) == 0 {
		return nil, fmt.Errorf("schema: form %q has no fields", form.ExperimentID)
	}

	request := RequestSchema(form)
	result := resultSchema()
	failure := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema())
	failure.Required = []string{"error"}

	title := form.ExperimentName
	if title == "" {
		title = form.ExperimentID
	}

	operation := &openapi3.Operation{
		OperationID: "predict",
		Summary:     "Predicción con el modelo " + title,
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchemaRef(componentRef(requestSchemaName, request)),
		},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(200, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription("Predicción realizada").
					WithJSONSchemaRef(componentRef(resultSchemaName, result)),
			}),
			openapi3.WithStatus(400, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription("Faltan datos requeridos").
					WithJSONSchemaRef(componentRef(errorSchemaName, failure)),
			}),
			openapi3.WithStatus(404, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription("Experimento no encontrado").
					WithJSONSchemaRef(componentRef(errorSchemaName, failure)),
			}),
		),
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Tasador · " + title,
			Version:     "1.0.0",
			Description: fmt.Sprintf("Predicción de %s a partir de %d columnas.", targetName(form), len(form.Fields)),
		},
		Paths: openapi3.NewPaths(openapi3.WithPath(PredictPath, &openapi3.PathItem{Post: operation})),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				requestSchemaName: openapi3.NewSchemaRef("", request),
				resultSchemaName:  openapi3.NewSchemaRef("", result),
				errorSchemaName:   openapi3.NewSchemaRef("", failure),
			},
		},
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("schema: validate document: %w", err)
	}
	return doc, nil
}

// RequestSchema returns the JSON schema of a prediction request for form.
func RequestSchema(form model.FormModel) *openapi3.Schema {
	data := openapi3.NewObjectSchema()
	data.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(false)}
	for _, field := range form.Fields {
		data.WithProperty(field.Name, fieldSchema(field))
		data.Required = append(data.Required, field.Name)
	}

	request := openapi3.NewObjectSchema().
		WithProperty("experimento_id", openapi3.NewStringSchema().WithEnum(form.ExperimentID)).
		WithProperty("datos", data)
	request.Required = []string{"experimento_id", "datos"}
	return request
}

func fieldSchema(field model.Field) *openapi3.Schema {
	schema := openapi3.NewFloat64Schema()
	schema.Title = field.Label
	if field.Numeric() {
		if placeholder := predict.ParseFloat(field.Placeholder); !isNaNOrInf(placeholder) {
			schema.Example = placeholder
		}
		return schema
	}

	var values []any
	var labels []string
	for _, option := range field.Options {
		if option.Value == "" {
			continue
		}
		value := predict.ParseFloat(option.Value)
		if isNaNOrInf(value) {
			continue
		}
		values = append(values, value)
		labels = append(labels, fmt.Sprintf("%s=%s", option.Value, option.Label))
	}
	schema.Enum = values
	schema.Description = strings.Join(labels, ", ")
	return schema
}

func resultSchema() *openapi3.Schema {
	number := openapi3.NewFloat64Schema
	return openapi3.NewObjectSchema().
		WithProperty("precio_predicho", number()).
		WithProperty("confianza", number()).
		WithProperty("tendencia_precio", openapi3.NewStringSchema().WithEnum("subida", "bajada", "estable")).
		WithProperty("tiempo_vida_estimado", number()).
		WithProperty("factores_importantes", openapi3.NewArraySchema().WithItems(
			openapi3.NewObjectSchema().
				WithProperty("nombre", openapi3.NewStringSchema()).
				WithProperty("impacto", number()),
		)).
		WithProperty("tiempo_venta", openapi3.NewObjectSchema().
			WithProperty("dias_minimo", number()).
			WithProperty("dias_maximo", number()).
			WithProperty("nivel_demanda", openapi3.NewStringSchema()).
			WithProperty("score_demanda", number())).
		WithProperty("rentabilidad_alquiler", openapi3.NewObjectSchema().
			WithProperty("roi_anual", number()).
			WithProperty("anos_recuperacion", number())).
		WithProperty("riesgo_inversion", openapi3.NewObjectSchema().
			WithProperty("nivel_riesgo", openapi3.NewStringSchema()).
			WithProperty("score_riesgo", number()))
}

func componentRef(name string, schema *openapi3.Schema) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, schema)
}

func targetName(form model.FormModel) string {
	if form.Target != "" {
		return form.Target
	}
	return "la variable objetivo"
}

func isNaNOrInf(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
