package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/goliatone/go-tasador/pkg/model"
	"github.com/goliatone/go-tasador/pkg/predict"
	"github.com/goliatone/go-tasador/pkg/preview"
	"github.com/goliatone/go-tasador/pkg/renderers/tui"
	"github.com/goliatone/go-tasador/pkg/report"
	"github.com/goliatone/go-tasador/pkg/schema"
)

func runModels(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("models", "")
	if err := parse(fs, args); err != nil {
		return err
	}

	models, err := a.orch.Models(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Fprintln(a.stdout, "No hay modelos entrenados disponibles")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOMBRE\tCOLUMNAS\tOBJETIVO")
	for _, exp := range models {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", exp.ID, exp.Nombre, len(exp.ColumnasEntrada), exp.ColumnaObjetivo)
	}
	return tw.Flush()
}

func runForm(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("form", "-model ID [-format text|json]")
	modelID := fs.String("model", "", "trained model id")
	format := fs.String("format", "text", "output format: text or json")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *modelID == "" {
		return usagef("-model is required")
	}

	form, err := a.orch.Form(ctx, *modelID)
	if err != nil {
		return err
	}

	switch strings.ToLower(*format) {
	case "json":
		data, err := json.MarshalIndent(form, "", "  ")
		if err != nil {
			return fmt.Errorf("encode form: %w", err)
		}
		_, err = fmt.Fprintln(a.stdout, string(data))
		return err
	case "text", "":
		return writeForm(a, form)
	default:
		return usagef("unsupported format %q", *format)
	}
}

func writeForm(a *app, form model.FormModel) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMNA\tETIQUETA\tTIPO\tDETALLE")
	for _, field := range form.Fields {
		if field.Numeric() {
			fmt.Fprintf(tw, "%s\t%s\tnumérico\tej. %s\n", field.Name, field.Label, field.Placeholder)
			continue
		}
		var options []string
		for _, opt := range field.Options {
			if opt.Value == "" {
				continue
			}
			options = append(options, opt.Value+"="+opt.Label)
		}
		fmt.Fprintf(tw, "%s\t%s\topciones\t%s\n", field.Name, field.Label, strings.Join(options, ", "))
	}
	return tw.Flush()
}

func runPredict(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("predict", "-model ID [-set col=val ...] [-interactive] [-report text|html] [-output file]")
	modelID := fs.String("model", "", "trained model id (prompted for in interactive mode)")
	values := setFlags{}
	fs.Var(values, "set", "column=value pair, repeatable")
	interactive := fs.Bool("interactive", false, "prompt for every field")
	reportFormat := fs.String("report", "text", "report format: text or html")
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	format, err := report.ParseFormat(*reportFormat)
	if err != nil {
		return usageError{msg: err.Error()}
	}
	if *modelID == "" && !*interactive {
		return usagef("-model is required unless -interactive is set")
	}

	session := a.orch.NewSession()
	if *interactive {
		if err := a.runInteractive(ctx, session, *modelID, values); err != nil {
			return err
		}
	} else {
		if err := session.SelectModel(ctx, *modelID); err != nil {
			return err
		}
		if err := session.SetFields(values); err != nil {
			return err
		}
		if _, err := session.Submit(ctx); err != nil {
			return err
		}
	}

	rendered, err := a.orch.Report(format, session)
	if err != nil {
		return err
	}
	return a.emit(*output, rendered)
}

func (a *app) runInteractive(ctx context.Context, session *predict.Session, modelID string, values setFlags) error {
	prompter := tui.New(
		tui.WithPromptDriver(newPromptDriver(a.stdout)),
		tui.WithLogger(a.logger.Named("tui")),
	)

	if modelID == "" {
		models, err := session.Experiments(ctx)
		if err != nil {
			return err
		}
		chosen, err := prompter.ChooseModel(ctx, models)
		if err != nil {
			return err
		}
		modelID = chosen.ID
	}
	if err := session.SelectModel(ctx, modelID); err != nil {
		return err
	}
	if err := session.SetFields(values); err != nil {
		return err
	}

	_, err := prompter.Run(ctx, session)
	if errors.Is(err, tui.ErrAborted) {
		a.logger.Debug("interactive session aborted")
	}
	return err
}

func (a *app) emit(path, content string) error {
	if path == "" {
		_, err := fmt.Fprint(a.stdout, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	a.logger.Info("report written", zap.String("path", path))
	fmt.Fprintf(a.stdout, "Informe escrito en %s\n", path)
	return nil
}

func runSchema(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("schema", "-model ID [-format json|yaml]")
	modelID := fs.String("model", "", "trained model id")
	format := fs.String("format", "json", "output format: json or yaml")
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *modelID == "" {
		return usagef("-model is required")
	}

	doc, err := a.orch.Schema(ctx, *modelID)
	if err != nil {
		return err
	}
	data, err := schema.Marshal(doc, *format)
	if err != nil {
		return err
	}
	content := string(data)
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return a.emit(*output, content)
}

func runDatasets(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("datasets", "")
	if err := parse(fs, args); err != nil {
		return err
	}

	datasets, err := a.orch.Datasets(ctx)
	if err != nil {
		return err
	}
	if len(datasets) == 0 {
		fmt.Fprintln(a.stdout, "No hay datasets")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOMBRE\tFILAS\tCOLUMNAS\tLIMPIO\tSUBIDO")
	for _, ds := range datasets {
		clean := "no"
		if ds.EsLimpio {
			clean = "sí"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", ds.ID, ds.Nombre, ds.Filas, ds.Columnas, clean, ds.FechaSubida)
	}
	return tw.Flush()
}

func runPreview(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("preview", "-dataset ID [-page N] [-filter text]")
	datasetID := fs.String("dataset", "", "dataset id")
	page := fs.Int("page", 1, "page number, starting at 1")
	query := fs.String("filter", "", "only show rows containing this text")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *datasetID == "" {
		return usagef("-dataset is required")
	}

	paginator, err := a.orch.Paginator(*datasetID)
	if err != nil {
		return err
	}
	loaded, err := paginator.Load(ctx, *page)
	if err != nil {
		return err
	}

	rows := preview.Filter(loaded.Rows, *query)
	columns := loaded.Columns()
	if len(columns) > 0 {
		tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.ToUpper(strings.Join(columns, "\t")))
		for _, row := range rows {
			cells := make([]string, len(columns))
			for i, column := range columns {
				cells[i] = preview.CellString(row[column])
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	state := paginator.State()
	footer := fmt.Sprintf("Página %d de %d · %d filas", state.Current, state.Total, state.TotalRows)
	if strings.TrimSpace(*query) != "" {
		footer += fmt.Sprintf(" · %d coinciden con %q", len(rows), *query)
	}
	_, err = fmt.Fprintln(a.stdout, footer)
	return err
}

func runColumns(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("columns", "-dataset ID")
	datasetID := fs.String("dataset", "", "dataset id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *datasetID == "" {
		return usagef("-dataset is required")
	}

	stats, err := a.orch.Columns(ctx, *datasetID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMNA\tTIPO\tNULOS\tÚNICOS\tPROMEDIO\tMIN\tMAX")
	for _, stat := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			stat.Nombre, stat.Tipo, stat.ValoresNulos, stat.ValoresUnicos,
			optional(stat.Promedio), optional(stat.Min), optional(stat.Max))
	}
	return tw.Flush()
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return preview.CellString(*v)
}
