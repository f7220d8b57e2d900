package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-tasador/pkg/api"
	"github.com/goliatone/go-tasador/pkg/preview"
	"github.com/goliatone/go-tasador/pkg/renderers/tui"
)

func runClean(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("clean", "-dataset ID [-nulls] [-duplicates] [-normalize] [-encode] [-outliers]")
	datasetID := fs.String("dataset", "", "dataset id")
	var opts api.CleaningOptions
	fs.BoolVar(&opts.EliminarNulos, "nulls", false, "drop rows with null values")
	fs.BoolVar(&opts.EliminarDuplicados, "duplicates", false, "drop duplicated rows")
	fs.BoolVar(&opts.Normalizar, "normalize", false, "normalise numeric columns")
	fs.BoolVar(&opts.CodificarCategoricas, "encode", false, "encode categorical columns")
	fs.BoolVar(&opts.DetectarOutliers, "outliers", false, "detect outliers")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *datasetID == "" {
		return usagef("-dataset is required")
	}
	if opts == (api.CleaningOptions{}) {
		return usagef("select at least one cleaning step")
	}

	result, err := a.orch.Clean(ctx, *datasetID, opts)
	if err != nil {
		return err
	}

	stats := result.Estadisticas
	mensaje := result.Mensaje
	if mensaje == "" {
		mensaje = "Limpieza completada"
	}
	fmt.Fprintf(a.stdout, "✓ %s\n", mensaje)
	fmt.Fprintf(a.stdout, "Dataset limpio: %s (%d filas)\n", result.DatasetLimpioID, result.FilasResultantes)
	fmt.Fprintf(a.stdout, "Filas eliminadas: %d (%.2f%%)\n", stats.FilasEliminadas, stats.PorcentajeDatosEliminados)
	fmt.Fprintf(a.stdout, "Nulos eliminados: %d\n", stats.NulosEliminados)
	fmt.Fprintf(a.stdout, "Duplicados eliminados: %d\n", stats.DuplicadosEliminados)
	_, err = fmt.Fprintf(a.stdout, "Datos conservados: %.1f%%\n", 100-stats.PorcentajeDatosEliminados)
	return err
}

func runTrain(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("train", "-dataset ID -inputs col,col... -target col [-type regresion|red_neuronal] [-format text|json]")
	cfg := api.DefaultTrainingConfig()
	fs.StringVar(&cfg.DatasetID, "dataset", "", "dataset id")
	inputs := listFlags{}
	fs.Var(&inputs, "inputs", "input columns, comma separated or repeated")
	fs.StringVar(&cfg.ColumnaObjetivo, "target", "", "target column")
	fs.StringVar(&cfg.TipoModelo, "type", cfg.TipoModelo, "model type: regresion or red_neuronal")
	fs.Float64Var(&cfg.TasaAprendizaje, "lr", cfg.TasaAprendizaje, "learning rate")
	fs.IntVar(&cfg.Epocas, "epochs", cfg.Epocas, "training epochs")
	fs.IntVar(&cfg.TamanoLote, "batch", cfg.TamanoLote, "batch size")
	fs.Float64Var(&cfg.ValidacionSplit, "split", cfg.ValidacionSplit, "validation fraction")
	format := fs.String("format", "text", "output format: text or json")
	if err := parse(fs, args); err != nil {
		return err
	}
	cfg.ColumnasEntrada = inputs

	exp, err := a.orch.Train(ctx, cfg)
	if err != nil {
		return err
	}
	if strings.EqualFold(*format, "json") {
		return writeJSON(a, exp)
	}
	fmt.Fprintf(a.stdout, "✓ Entrenamiento completado: %s\n\n", exp.ID)
	return writeResults(a, exp)
}

func runResults(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("results", "-model ID [-format text|json]")
	modelID := fs.String("model", "", "experiment id")
	format := fs.String("format", "text", "output format: text or json")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *modelID == "" {
		return usagef("-model is required")
	}

	exp, err := a.orch.Results(ctx, *modelID)
	if err != nil {
		return err
	}
	switch strings.ToLower(*format) {
	case "json":
		return writeJSON(a, exp)
	case "text", "":
		return writeResults(a, exp)
	default:
		return usagef("unsupported format %q", *format)
	}
}

func runDelete(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("delete", "-model ID [-yes]")
	modelID := fs.String("model", "", "experiment id")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *modelID == "" {
		return usagef("-model is required")
	}

	if !*yes {
		confirmed, err := newPromptDriver(a.stdout).Confirm(ctx, tui.ConfirmConfig{
			Message: fmt.Sprintf("Se eliminará %s permanentemente. ¿Continuar?", *modelID),
		})
		if err != nil {
			return err
		}
		if !confirmed {
			_, err := fmt.Fprintln(a.stdout, "Eliminación cancelada")
			return err
		}
	}

	if err := a.orch.DeleteModel(ctx, *modelID); err != nil {
		return err
	}
	_, err := fmt.Fprintf(a.stdout, "✓ Experimento eliminado: %s\n", *modelID)
	return err
}

func writeResults(a *app, exp api.Experiment) error {
	name := exp.Nombre
	if name == "" {
		name = exp.ID
	}
	fmt.Fprintf(a.stdout, "%s (%s)\n", name, exp.ID)
	fmt.Fprintf(a.stdout, "Estado: %s", exp.Estado)
	if exp.FechaCreacion != "" {
		fmt.Fprintf(a.stdout, " · Creado: %s", exp.FechaCreacion)
	}
	fmt.Fprintln(a.stdout)
	if exp.DatasetID != "" {
		fmt.Fprintf(a.stdout, "Dataset: %s\n", exp.DatasetID)
	}
	fmt.Fprintf(a.stdout, "Columnas: %s → %s\n", strings.Join(exp.ColumnasEntrada, ", "), exp.ColumnaObjetivo)
	if score, ok := exp.Score(); ok {
		kind := "Regresión (R²)"
		if exp.Classification() {
			kind = "Clasificación (precisión)"
		}
		fmt.Fprintf(a.stdout, "%s: %.2f%%\n", kind, score)
	}

	metrics, err := exp.Metrics()
	if err != nil {
		return err
	}
	if len(metrics) > 0 {
		names := make([]string, 0, len(metrics))
		for key := range metrics {
			names = append(names, key)
		}
		sort.Strings(names)

		fmt.Fprintln(a.stdout)
		tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "MÉTRICA\tVALOR")
		for _, key := range names {
			fmt.Fprintf(tw, "%s\t%s\n", key, preview.CellString(metrics[key]))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(exp.ImportanciaFeatures) > 0 {
		fmt.Fprintln(a.stdout)
		tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COLUMNA\tIMPORTANCIA")
		for _, feature := range exp.ImportanciaFeatures {
			fmt.Fprintf(tw, "%s\t%s\n", feature.Feature, preview.CellString(feature.Importancia))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(exp.MetricasPorEpoca) > 0 {
		last := exp.MetricasPorEpoca[len(exp.MetricasPorEpoca)-1]
		fmt.Fprintf(a.stdout, "\nÉpocas: %d · pérdida final %s / %s (entrenamiento / validación)\n",
			len(exp.MetricasPorEpoca),
			preview.CellString(last.PerdidaEntrenamiento),
			preview.CellString(last.PerdidaValidacion))
	}
	return nil
}

func writeJSON(a *app, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(a.stdout, string(data))
	return err
}

// listFlags collects column names given comma separated or repeated.
type listFlags []string

func (l *listFlags) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlags) Set(raw string) error {
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}
