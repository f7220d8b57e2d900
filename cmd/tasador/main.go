package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-tasador/internal/config"
	"github.com/goliatone/go-tasador/internal/logging"
	"github.com/goliatone/go-tasador/pkg/api"
	"github.com/goliatone/go-tasador/pkg/model"
	"github.com/goliatone/go-tasador/pkg/orchestrator"
	"github.com/goliatone/go-tasador/pkg/predict"
	"github.com/goliatone/go-tasador/pkg/preview"
	"github.com/goliatone/go-tasador/pkg/renderers/tui"
)

const usage = `Usage: tasador [global flags] <command> [flags]

Commands:
  models     list trained models
  form       print the inferred form of a model
  predict    fill a model form and request a prediction
  schema     print the OpenAPI description of a model request
  datasets   list uploaded datasets
  preview    show one page of a dataset
  columns    show per-column statistics of a dataset
  clean      clean a dataset into a new one
  train      train a model on a dataset
  results    show the metrics of an experiment
  delete     delete an experiment

Global flags:
`

// newPromptDriver is swapped in tests to script interactive sessions.
var newPromptDriver = func(out io.Writer) tui.PromptDriver {
	return tui.NewSurveyDriver(out)
}

type command struct {
	name string
	run  func(ctx context.Context, app *app, args []string) error
}

var commands = []command{
	{name: "models", run: runModels},
	{name: "form", run: runForm},
	{name: "predict", run: runPredict},
	{name: "schema", run: runSchema},
	{name: "datasets", run: runDatasets},
	{name: "preview", run: runPreview},
	{name: "columns", run: runColumns},
	{name: "clean", run: runClean},
	{name: "train", run: runTrain},
	{name: "results", run: runResults},
	{name: "delete", run: runDelete},
}

type app struct {
	cfg    config.Config
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("tasador", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() {
		fmt.Fprint(stderr, usage)
		global.PrintDefaults()
	}
	configPath := global.String("config", "", "YAML config file (defaults to $"+config.EnvConfig+")")
	apiURL := global.String("api", "", "backend base URL (overrides config)")
	timeout := global.Duration("timeout", 0, "per-request timeout (overrides config)")
	logLevel := global.String("log-level", "", "debug, info, warn or error (overrides config)")
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return 2
	}
	cmd, ok := lookupCommand(rest[0])
	if !ok {
		fmt.Fprintf(stderr, "tasador: unknown command %q\n", rest[0])
		global.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath, *apiURL, *timeout, *logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "tasador: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "tasador: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cfg, logger, stdout, stderr)
	if err != nil {
		logger.Error("initialise", zap.Error(err))
		fmt.Fprintf(stderr, "tasador: %v\n", err)
		return 1
	}

	if err := cmd.run(ctx, a, rest[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		var usageErr usageError
		if errors.As(err, &usageErr) {
			if !usageErr.reported {
				fmt.Fprintf(stderr, "tasador %s: %v\n", cmd.name, err)
			}
			return 2
		}
		logger.Error("command failed", zap.String("command", cmd.name), zap.Error(err))
		fmt.Fprintf(stderr, "✗ %s\n", displayMessage(err))
		return 1
	}
	return 0
}

// displayMessage prefers the text meant for users: validation messages and
// backend error strings.
func displayMessage(err error) string {
	var verr *predict.ValidationError
	var rerr *api.RequestError
	var terr *api.TransportError
	if errors.As(err, &verr) || errors.As(err, &rerr) || errors.As(err, &terr) {
		return predict.DisplayMessage(err)
	}
	return err.Error()
}

func lookupCommand(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

// loadConfig layers flags over the file and environment settings.
func loadConfig(path, apiURL string, timeout time.Duration, logLevel string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if strings.TrimSpace(apiURL) != "" {
		cfg.API.BaseURL = strings.TrimSpace(apiURL)
	}
	if timeout != 0 {
		cfg.API.Timeout = config.Duration{Duration: timeout}
	}
	if strings.TrimSpace(logLevel) != "" {
		cfg.Log.Level = strings.TrimSpace(logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, stderr io.Writer) (*zap.Logger, error) {
	if strings.TrimSpace(cfg.File) != "" {
		return logging.New(cfg)
	}
	return logging.NewWithWriter(cfg, stderr)
}

func newApp(cfg config.Config, logger *zap.Logger, stdout, stderr io.Writer) (*app, error) {
	var builderOptions []model.BuilderOption
	if len(cfg.Keywords) > 0 {
		builderOptions = append(builderOptions, model.WithKeywordTable(cfg.Keywords))
	}
	if len(cfg.Placeholders) > 0 {
		builderOptions = append(builderOptions, model.WithPlaceholderRules(cfg.Placeholders))
	}

	cache, err := preview.NewCache(cfg.Preview.CachePages)
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(
		orchestrator.WithBaseURL(cfg.API.BaseURL),
		orchestrator.WithTimeout(cfg.API.Timeout.Duration),
		orchestrator.WithJobTimeout(cfg.API.JobTimeout.Duration),
		orchestrator.WithRateLimit(cfg.API.RatePerSecond, cfg.API.Burst),
		orchestrator.WithModelBuilder(model.NewBuilder(builderOptions...)),
		orchestrator.WithReportTheme(cfg.Report.Theme, cfg.Report.Variant),
		orchestrator.WithReportTemplates(cfg.Report.TemplatesDir),
		orchestrator.WithPreviewCache(cache),
		orchestrator.WithLogger(logger),
	)
	if err := orch.Err(); err != nil {
		return nil, err
	}

	logger.Debug("configured",
		zap.String("api", cfg.API.BaseURL),
		zap.Duration("timeout", cfg.API.Timeout.Duration),
		zap.String("theme", cfg.Report.Theme+"/"+cfg.Report.Variant),
	)

	return &app{cfg: cfg, orch: orch, logger: logger, stdout: stdout, stderr: stderr}, nil
}

// usageError marks bad command-line input so it exits with status 2.
type usageError struct {
	msg      string
	reported bool
}

func (e usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func (a *app) flagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: tasador %s %s\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// parse wraps flag errors so they exit with status 2.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		// the flag package already printed the error and usage
		return usageError{msg: err.Error(), reported: true}
	}
	if fs.NArg() > 0 {
		return usagef("unexpected arguments %v", fs.Args())
	}
	return nil
}

// setFlags collects repeated -set column=value pairs.
type setFlags map[string]string

func (s setFlags) String() string {
	pairs := make([]string, 0, len(s))
	for k, v := range s {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (s setFlags) Set(raw string) error {
	column, value, ok := strings.Cut(raw, "=")
	column = strings.TrimSpace(column)
	if !ok || column == "" {
		return fmt.Errorf("expected column=value, got %q", raw)
	}
	s[column] = value
	return nil
}
