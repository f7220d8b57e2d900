package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-tasador/pkg/api"
)

// Builder converts experiment descriptors into form models.
type Builder struct {
	inferrer *Inferrer
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	return &Builder{inferrer: NewInferrer(options)}
}

// Build infers one field per input column of the experiment, preserving the
// declared column order.
func (b *Builder) Build(exp api.Experiment) (FormModel, error) {
	if err := validateExperiment(exp); err != nil {
		return FormModel{}, err
	}

	form := FormModel{
		ExperimentID:   exp.ID,
		ExperimentName: exp.Nombre,
		Target:         exp.ColumnaObjetivo,
		Fields:         make([]Field, 0, len(exp.ColumnasEntrada)),
	}
	for _, column := range exp.ColumnasEntrada {
		form.Fields = append(form.Fields, b.inferrer.Infer(column))
	}
	return form, nil
}

func validateExperiment(exp api.Experiment) error {
	if strings.TrimSpace(exp.ID) == "" {
		return errors.New("model builder: experiment id is required")
	}
	if len(exp.ColumnasEntrada) == 0 {
		return fmt.Errorf("model builder: experiment %q declares no input columns", exp.ID)
	}
	seen := make(map[string]struct{}, len(exp.ColumnasEntrada))
	for idx, column := range exp.ColumnasEntrada {
		if strings.TrimSpace(column) == "" {
			return fmt.Errorf("model builder: experiment %q column %d is empty", exp.ID, idx)
		}
		if _, dup := seen[column]; dup {
			return fmt.Errorf("model builder: experiment %q repeats column %q", exp.ID, column)
		}
		seen[column] = struct{}{}
	}
	return nil
}
