package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tasador/pkg/model"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasador.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.API.BaseURL != "http://localhost:5000" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := writeFile(t, `
api:
  base_url: https://tasador.example.com
  timeout: 45s
  rate_per_second: 2
  burst: 1
preview:
  cache_pages: 8
report:
  variant: dark
  templates_dir: ./plantillas
log:
  format: json
  file: /tmp/tasador.log
keywords:
  - name: terraza
    kind: enumerated
    keywords: [terraza]
    options:
      - {value: "", label: Seleccionar}
      - {value: "0", label: "No"}
      - {value: "1", label: "Sí"}
`)

	cfg, err := load("", envMap(map[string]string{
		EnvConfig:   path,
		EnvTimeout:  "90",
		EnvLogLevel: "debug",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.API.BaseURL != "https://tasador.example.com" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout.Duration != 90*time.Second {
		t.Fatalf("expected env timeout to win, got %s", cfg.API.Timeout)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if cfg.Report.Theme != "tasador" || cfg.Report.Variant != "dark" || cfg.Report.TemplatesDir != "./plantillas" {
		t.Fatalf("unexpected report config %+v", cfg.Report)
	}
	if cfg.Preview.CachePages != 8 {
		t.Fatalf("unexpected cache pages %d", cfg.Preview.CachePages)
	}

	want := []model.KeywordGroup{{
		Name:     "terraza",
		Kind:     model.FieldKindEnumerated,
		Keywords: []string{"terraza"},
		Options: []model.EnumOption{
			{Value: "", Label: "Seleccionar"},
			{Value: "0", Label: "No"},
			{Value: "1", Label: "Sí"},
		},
	}}
	if diff := cmp.Diff(want, cfg.Keywords); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_APIURLOverride(t *testing.T) {
	cfg, err := load("", envMap(map[string]string{EnvAPIURL: "http://10.0.0.5:5000"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.5:5000" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]struct {
		file string
		env  map[string]string
		want string
	}{
		"bad url":        {env: map[string]string{EnvAPIURL: "localhost:5000"}, want: "api.base_url"},
		"bad timeout":    {env: map[string]string{EnvTimeout: "pronto"}, want: EnvTimeout},
		"zero timeout":   {file: "api:\n  timeout: 0s\n", want: "api.timeout"},
		"bad format":     {file: "log:\n  format: xml\n", want: "log.format"},
		"bad yaml":       {file: "api: [", want: "parse"},
		"empty keywords": {file: "keywords:\n  - name: x\n", want: "keywords[0]"},
		"missing file":   {env: map[string]string{EnvConfig: "/nonexistent/tasador.yaml"}, want: "read"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := ""
			if tc.file != "" {
				path = writeFile(t, tc.file)
			}
			_, err := load(path, envMap(tc.env))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{"": 0, "30": 30 * time.Second, "1.5": 1500 * time.Millisecond, "2m": 2 * time.Minute}
	for input, want := range cases {
		got, err := ParseDuration(input)
		if err != nil || got != want {
			t.Fatalf("ParseDuration(%q) = %s, %v", input, got, err)
		}
	}
}
