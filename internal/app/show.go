package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"bolsawatch/internal/storage"
)

// Show prints the most recent observations.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show observations")
	}
	if closeStore != nil {
		defer closeStore()
	}

	history := store.LoadHistory(ctx)
	if len(history) == 0 {
		fmt.Fprintln(os.Stdout, "no observations found")
		return nil
	}

	if opts.Limit > 0 && len(history) > opts.Limit {
		history = history[len(history)-opts.Limit:]
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Fecha\tNEMO\tPrecio\tVar")

	for _, obs := range history {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\n",
			obs.Fecha.Format(storage.FechaLayout),
			obs.NEMO,
			nullDecimalText(obs.Precio),
			nullDecimalText(obs.Var),
		)
	}

	writer.Flush()
	return nil
}

func nullDecimalText(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(2)
}
