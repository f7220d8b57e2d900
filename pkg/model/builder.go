package model

import (
	"github.com/goliatone/go-tasador/internal/model"
	"github.com/goliatone/go-tasador/pkg/api"
)

// Builder converts experiment descriptors into form models.
type Builder interface {
	Build(exp api.Experiment) (FormModel, error)
}

// BuilderOption configures the builder behaviour.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	labeler      func(string) string
	keywords     []KeywordGroup
	placeholders []PlaceholderRule
}

// WithLabeler overrides the default label generation function.
func WithLabeler(labeler func(string) string) BuilderOption {
	return func(opts *builderOptions) {
		opts.labeler = labeler
	}
}

// WithKeywordTable replaces the keyword groups consulted when inferring field
// kinds. Groups are matched in order, first match wins.
func WithKeywordTable(groups []KeywordGroup) BuilderOption {
	return func(opts *builderOptions) {
		opts.keywords = groups
	}
}

// WithPlaceholderRules replaces the numeric placeholder rules.
func WithPlaceholderRules(rules []PlaceholderRule) BuilderOption {
	return func(opts *builderOptions) {
		opts.placeholders = rules
	}
}

// NewBuilder returns a Builder backed by the internal implementation.
func NewBuilder(options ...BuilderOption) Builder {
	cfg := builderOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	return model.New(model.Options{
		Labeler:      cfg.labeler,
		Keywords:     cfg.keywords,
		Placeholders: cfg.placeholders,
	})
}
