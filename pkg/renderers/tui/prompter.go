package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-tasador/pkg/api"
	"github.com/goliatone/go-tasador/pkg/model"
	"github.com/goliatone/go-tasador/pkg/predict"
)

// Prompter fills a prediction session from the terminal.
type Prompter struct {
	driver PromptDriver
	theme  Theme
	logger *zap.Logger
}

// New constructs a Prompter backed by survey prompts unless another driver is
// supplied.
func New(options ...Option) *Prompter {
	p := &Prompter{
		logger: zap.NewNop(),
		theme:  Theme{InfoPrefix: "", ErrorPrefix: "✗ "},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	if p.driver == nil {
		p.driver = NewSurveyDriver(nil)
	}
	return p
}

// ChooseModel asks the user to pick one of the completed experiments.
func (p *Prompter) ChooseModel(ctx context.Context, experiments []api.Experiment) (api.Experiment, error) {
	completed := api.CompletedOnly(experiments)
	if len(completed) == 0 {
		return api.Experiment{}, ErrNoModels
	}

	options := make([]string, len(completed))
	for i, exp := range completed {
		options[i] = fmt.Sprintf("%s (%s, %d columnas)", displayName(exp), exp.ID, len(exp.ColumnasEntrada))
	}
	idx, err := p.driver.Select(ctx, SelectConfig{
		Message:  "Modelo entrenado",
		Options:  options,
		PageSize: 10,
	})
	if err != nil {
		return api.Experiment{}, err
	}
	if idx < 0 || idx >= len(completed) {
		return api.Experiment{}, fmt.Errorf("tui: invalid model choice %d", idx)
	}
	return completed[idx], nil
}

// Fill prompts for every field of the selected model, offering current values
// as defaults.
func (p *Prompter) Fill(ctx context.Context, session *predict.Session) error {
	form, ok := session.Form()
	if !ok {
		return predict.ErrNoModel
	}
	values := session.Values()

	for _, field := range form.Fields {
		var (
			value string
			err   error
		)
		if field.Numeric() {
			value, err = p.promptNumber(ctx, field, values[field.Name])
		} else {
			value, err = p.promptOption(ctx, field, values[field.Name])
		}
		if err != nil {
			return err
		}
		if err := session.SetField(field.Name, value); err != nil {
			return err
		}
	}
	return nil
}

// Run fills and submits until a prediction succeeds or the user gives up.
// After a failure the user may retry with the same values or start over.
func (p *Prompter) Run(ctx context.Context, session *predict.Session) (*api.PredictionResult, error) {
	for {
		if err := p.Fill(ctx, session); err != nil {
			return nil, err
		}

		result, err := session.Submit(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, predict.ErrStale) || errors.Is(err, predict.ErrSubmitting) {
			return nil, err
		}

		message := predict.DisplayMessage(err)
		p.logger.Debug("prediction attempt failed", zap.String("message", message), zap.Error(err))
		if infoErr := p.driver.Info(ctx, p.theme.ErrorPrefix+message); infoErr != nil {
			return nil, infoErr
		}

		retry, confirmErr := p.driver.Confirm(ctx, ConfirmConfig{Message: "¿Intentar de nuevo?", Default: true})
		if confirmErr != nil {
			return nil, confirmErr
		}
		if !retry {
			return nil, err
		}
		keep, confirmErr := p.driver.Confirm(ctx, ConfirmConfig{Message: "¿Conservar los valores introducidos?", Default: true})
		if confirmErr != nil {
			return nil, confirmErr
		}
		if !keep {
			session.Reset()
		}
	}
}

func (p *Prompter) promptNumber(ctx context.Context, field model.Field, current string) (string, error) {
	help := ""
	if field.Placeholder != "" {
		help = "Ejemplo: " + field.Placeholder
	}
	value, err := p.driver.Input(ctx, InputConfig{
		Message:   field.Label,
		Default:   current,
		Help:      help,
		Validator: validateNumber,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func (p *Prompter) promptOption(ctx context.Context, field model.Field, current string) (string, error) {
	var (
		labels []string
		values []string
	)
	defaultIdx := 0
	for _, option := range field.Options {
		if option.Value == "" {
			continue
		}
		if option.Value == current {
			defaultIdx = len(values)
		}
		labels = append(labels, option.Label)
		values = append(values, option.Value)
	}
	if len(values) == 0 {
		return "", fmt.Errorf("tui: field %q has no options", field.Name)
	}

	idx, err := p.driver.Select(ctx, SelectConfig{
		Message:      field.Label,
		Options:      labels,
		DefaultIndex: defaultIdx,
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(values) {
		return "", fmt.Errorf("tui: invalid choice %d for %q", idx, field.Name)
	}
	return values[idx], nil
}

func validateNumber(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("campo obligatorio")
	}
	if v := predict.ParseFloat(s); math.IsNaN(v) {
		return errors.New("introduce un número")
	}
	return nil
}

func displayName(exp api.Experiment) string {
	if strings.TrimSpace(exp.Nombre) != "" {
		return exp.Nombre
	}
	return exp.ID
}
