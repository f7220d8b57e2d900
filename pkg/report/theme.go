package report

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

const (
	DefaultTheme   = "tasador"
	DefaultVariant = "light"
)

// DefaultManifest returns the built-in palette with light and dark variants.
func DefaultManifest() *theme.Manifest {
	light := map[string]string{
		"success":    "#059669",
		"info":       "#2563eb",
		"warning":    "#d97706",
		"error":      "#e11d48",
		"neutral":    "#475569",
		"accent":     "#0ea5e9",
		"text":       "#0f172a",
		"muted":      "#64748b",
		"surface":    "#ffffff",
		"background": "#f1f5f9",
	}
	return &theme.Manifest{
		Name:    DefaultTheme,
		Version: "1.0.0",
		Tokens:  light,
		Variants: map[string]theme.Variant{
			"light": {Tokens: copyTokens(light)},
			"dark": {Tokens: map[string]string{
				"success":    "#34d399",
				"info":       "#60a5fa",
				"warning":    "#fbbf24",
				"error":      "#fb7185",
				"neutral":    "#94a3b8",
				"accent":     "#38bdf8",
				"text":       "#e2e8f0",
				"muted":      "#94a3b8",
				"surface":    "#1e293b",
				"background": "#0f172a",
			}},
		},
	}
}

// Themes resolves report palettes through a go-theme registry. It
// satisfies theme.ThemeSelector.
type Themes struct {
	mu       sync.Mutex
	registry *theme.MemoryRegistry
}

var _ theme.ThemeSelector = (*Themes)(nil)

// NewThemes registers manifests, or the default manifest when none are given.
func NewThemes(manifests ...*theme.Manifest) (*Themes, error) {
	t := &Themes{registry: theme.NewRegistry()}
	if len(manifests) == 0 {
		manifests = []*theme.Manifest{DefaultManifest()}
	}
	for _, manifest := range manifests {
		if err := t.Register(manifest); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Register adds a manifest. A name may be registered once per version.
func (t *Themes) Register(manifest *theme.Manifest) error {
	if manifest == nil {
		return errors.New("report: theme manifest is required")
	}
	name := strings.TrimSpace(manifest.Name)
	if name == "" {
		return errors.New("report: theme name is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.registry.Get(name, theme.WithVersion(manifest.Version), theme.WithoutFallback()); err == nil {
		return fmt.Errorf("report: theme %q version %q already registered", name, manifest.Version)
	}
	if err := t.registry.Register(manifest); err != nil {
		return fmt.Errorf("report: register theme %q: %w", name, err)
	}
	return nil
}

// Select resolves a theme and variant. Empty values pick the defaults and
// the latest registered version wins unless opts ask for another one.
func (t *Themes) Select(name, variant string, opts ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultTheme
	}
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = DefaultVariant
	}

	selection, err := theme.Selector{Registry: t.registry}.Select(name, variant, opts...)
	if err != nil {
		return nil, fmt.Errorf("report: unknown theme %q: %w", name, err)
	}
	if _, ok := selection.Manifest.Variants[variant]; !ok && len(selection.Manifest.Variants) > 0 {
		return nil, fmt.Errorf("report: theme %q has no variant %q", name, variant)
	}
	return selection, nil
}

// Palette flattens a selection into tokens: the manifest's base tokens with
// the variant's tokens on top.
func Palette(selection *theme.Selection) map[string]string {
	if selection == nil {
		return map[string]string{}
	}
	return selection.Tokens()
}

func copyTokens(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
