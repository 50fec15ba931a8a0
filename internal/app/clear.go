package app

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ClearHistory wipes the persisted observation table down to its schema.
// Alert state is per-session and in-memory, so a running monitor clears its
// own set through the dashboard action instead.
func (a *App) ClearHistory(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; nothing to clear")
	}
	if closeStore != nil {
		defer closeStore()
	}

	before, err := store.CountObservations(ctx)
	if err != nil {
		return err
	}

	if err := store.ClearHistory(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "cleared %d observations\n", before)
	return nil
}
