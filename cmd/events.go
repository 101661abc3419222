package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/spraycam/internal/adapters/repository"
	"github.com/okian/spraycam/internal/domain/types"
)

// eventsCommand queries the event log without starting the camera.
func eventsCommand(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Query the event log",
	}

	var days int
	daily := &cobra.Command{
		Use:   "daily",
		Short: "Print events per day, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openEventLog(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			from, to := repository.DayRange(time.Now(), days)
			counts, err := store.DailyCounts(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			return printDaily(cmd.OutOrStdout(), types.NewDailyEntries(counts))
		},
	}
	daily.Flags().IntVar(&days, "days", 7, "Number of days ending today")

	var limit int
	var asJSON bool
	recent := &cobra.Command{
		Use:   "recent",
		Short: "Print the most recent events, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openEventLog(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			recs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			entries := make([]types.EventEntry, 0, len(recs))
			for _, rec := range recs {
				entries = append(entries, types.NewEventEntry(rec))
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  rate=%d delay=%d\n", e.StartedAt, e.EventID, e.Rate, e.CaptureDelay)
			}
			return nil
		},
	}
	recent.Flags().IntVar(&limit, "limit", 20, "Maximum number of events")
	recent.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")

	cmd.AddCommand(daily, recent)
	return cmd
}

func openEventLog(cmd *cobra.Command, f *flags) (*repository.SQLiteStore, error) {
	cfg, err := loadConfig(cmd.Context(), f)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return repository.OpenSQLite(cfg.EventDBPath)
}

// printDaily writes one "day count" line per entry followed by the total.
func printDaily(w io.Writer, days []types.DailyEntry) error {
	total := 0
	for _, d := range days {
		if _, err := fmt.Fprintf(w, "%s  %d\n", d.Day, d.Count); err != nil {
			return err
		}
		total += d.Count
	}
	_, err := fmt.Fprintf(w, "total       %d\n", total)
	return err
}
