package app

import (
	"context"
	"encoding/json"
	"io"
)

// Snapshot prints the on-demand jackpot view as JSON. Nothing is persisted or sent.
func (a *App) Snapshot(ctx context.Context, out io.Writer) error {
	svc, closeStore, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
