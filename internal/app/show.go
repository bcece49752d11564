package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"jackpot-alerts/internal/amount"
	"jackpot-alerts/internal/fetcher"
	"jackpot-alerts/internal/storage"
)

// Show prints the persisted state of every feed.
func (a *App) Show(ctx context.Context, out io.Writer, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	feeds := opts.Feeds
	if len(feeds) == 0 {
		feeds = []string{fetcher.PowerballName, fetcher.MegaMillionsName}
	}
	return writeStates(ctx, out, store, feeds)
}

func writeStates(ctx context.Context, out io.Writer, store storage.StateStore, feeds []string) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Feed\tLast Amount\tMillions\tObserved (UTC)")

	for _, feed := range feeds {
		state, err := store.GetState(ctx, feed)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			fmt.Fprintf(writer, "%s\t-\t-\t-\n", feed)
			continue
		case err != nil:
			return fmt.Errorf("read state for %s: %w", feed, err)
		}

		observed := "-"
		if !state.ObservedAt.IsZero() {
			observed = state.ObservedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(writer, "%s\t%s\t%g\t%s\n", feed, amount.Format(state.AmountMillions), state.AmountMillions, observed)
	}

	return writer.Flush()
}
