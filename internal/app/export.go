package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"

	"bolsawatch/internal/storage"
)

// Export renders historical observations as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	history := store.LoadHistory(ctx)
	history = filterWindow(history, opts)
	if len(history) == 0 {
		a.Logger.Info().Msg("no observations found for export window")
		return nil
	}

	downsampled := downsampleObservations(history, opts.MaxPoints)
	a.Logger.Info().Int("total", len(history)).Int("exported", len(downsampled)).Msg("exporting observations")

	if opts.CSVPath != "" {
		if err := writeObservationsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeObservationsPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func filterWindow(history []storage.Observation, opts ExportOptions) []storage.Observation {
	result := make([]storage.Observation, 0, len(history))
	for _, obs := range history {
		if opts.NEMO != "" && obs.NEMO != opts.NEMO {
			continue
		}
		if opts.From != nil && obs.Fecha.Before(*opts.From) {
			continue
		}
		if opts.To != nil && !obs.Fecha.Before(*opts.To) {
			continue
		}
		result = append(result, obs)
	}
	return result
}

func downsampleObservations(observations []storage.Observation, max int) []storage.Observation {
	if max <= 0 || len(observations) <= max {
		return observations
	}

	result := make([]storage.Observation, 0, max)
	step := float64(len(observations)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(observations) {
			idx = len(observations) - 1
		}
		result = append(result, observations[idx])
	}
	return result
}

func writeObservationsCSV(path string, observations []storage.Observation) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Fecha", "NEMO", "Precio", "Var"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, obs := range observations {
		record := []string{
			obs.Fecha.Format(storage.FechaLayout),
			obs.NEMO,
			nullDecimalText(obs.Precio),
			nullDecimalText(obs.Var),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeObservationsPNG(path string, observations []storage.Observation) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	series := make(map[string]*chart.TimeSeries)
	var names []string
	for _, obs := range observations {
		if !obs.Precio.Valid {
			continue
		}
		ts, ok := series[obs.NEMO]
		if !ok {
			ts = &chart.TimeSeries{Name: obs.NEMO}
			series[obs.NEMO] = ts
			names = append(names, obs.NEMO)
		}
		ts.XValues = append(ts.XValues, obs.Fecha)
		ts.YValues = append(ts.YValues, obs.Precio.Decimal.InexactFloat64())
	}
	if len(names) == 0 {
		return errors.New("no plottable prices in export window")
	}
	sort.Strings(names)

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Precio",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.2f")
			},
		},
	}
	for _, name := range names {
		graph.Series = append(graph.Series, *series[name])
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
