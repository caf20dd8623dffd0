package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/typecopilot/internal/app"
	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/infrastructure/cli/helpers"
	"github.com/doeshing/typecopilot/internal/ports"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect correction history",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
		newHistoryStatsCommand(container),
		newHistoryPruneCommand(container),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent corrections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.OutOrStdout(), container, limit, time.Now())
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Max entries to show")
	return cmd
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(container *app.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !helpers.Confirm(out, cmd.InOrStdin(), "Delete all correction history?", yes) {
				fmt.Fprintln(out, MsgCancelled)
				return nil
			}
			return clearHistory(container)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := exportHistory(container, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported history to %s\n", args[0])
			return nil
		},
	}
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show outcome, model and mode counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistoryStats(cmd.OutOrStdout(), container)
		},
	}
}

// newHistoryPruneCommand creates the 'history prune' subcommand
func newHistoryPruneCommand(container *app.Container) *cobra.Command {
	var retainDays int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete history older than N days (default: history.retention_days)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				retainDays = container.Config.GetHistoryRetentionDays()
			}
			if retainDays <= 0 {
				return errors.New(ErrInvalidRetainDays)
			}
			return pruneHistory(cmd.OutOrStdout(), container, retainDays, time.Now())
		},
	}

	cmd.Flags().IntVar(&retainDays, "days", domain.DefaultHistoryRetainDays, "Days to retain history")
	return cmd
}

// historyStore returns the store or an error when history is unavailable
func historyStore(container *app.Container) (ports.HistoryRepository, error) {
	if container.HistoryStore == nil {
		return nil, errors.New(ErrHistoryStoreUnavailable)
	}
	return container.HistoryStore, nil
}

// listHistoryEntries lists recent history entries, newest first
func listHistoryEntries(out io.Writer, container *app.Container, limit int, now time.Time) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}

	records, err := store.Records(limit)
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	for _, rec := range records {
		fmt.Fprintf(out, "%s | %s/%s | %s | %s | %s\n",
			humanize.RelTime(rec.Timestamp, now, "ago", "from now"),
			rec.Mode,
			rec.Target,
			rec.Model,
			rec.Outcome,
			describeRecord(rec))
	}

	return nil
}

// describeRecord summarises a record's payload; text is shown only when it was stored
func describeRecord(rec domain.CorrectionRecord) string {
	if rec.Input != "" || rec.Output != "" {
		return fmt.Sprintf("%q -> %q", rec.Input, rec.Output)
	}
	return fmt.Sprintf("%d -> %d chars, %d fragment(s), %dms", rec.InputLen, rec.OutputLen, rec.Fragments, rec.DurationMS)
}

// clearHistory clears the history store
func clearHistory(container *app.Container) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	return nil
}

// exportHistory exports history to a JSON file
func exportHistory(container *app.Container, path string) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}

	if err := store.ExportJSON(path); err != nil {
		return fmt.Errorf("failed to export history to %s: %w", path, err)
	}

	return nil
}

// showHistoryStats displays outcome rates and rankings
func showHistoryStats(out io.Writer, container *app.Container) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}

	records, err := store.Records(MaxHistoryAnalysisRecords)
	if err != nil {
		return fmt.Errorf("failed to retrieve history for analysis: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	displayHistoryStatistics(out, helpers.SummarizeHistory(records, TopStatisticsLimit))
	return nil
}

// displayHistoryStatistics displays formatted history statistics
func displayHistoryStatistics(out io.Writer, summary helpers.HistorySummary) {
	fmt.Fprintf(out, "Corrections analyzed: %s\nApplied: %s (%.1f%%)\nFragments injected: %s\nAverage duration: %s\n",
		humanize.Comma(int64(summary.Total)),
		humanize.Comma(int64(summary.Applied)),
		helpers.CalculateSuccessRate(summary.Applied, summary.Total),
		humanize.Comma(int64(summary.Fragments)),
		summary.AvgDuration)

	for _, section := range []struct {
		title string
		stats []helpers.Statistic
	}{
		{"Outcomes", summary.Outcomes},
		{"Models", summary.Models},
		{"Modes", summary.Modes},
	} {
		fmt.Fprintf(out, "%s:\n", section.title)
		for _, stat := range section.stats {
			fmt.Fprintf(out, "  %s (%d)\n", stat.Name, stat.Count)
		}
	}
}

// pruneHistory deletes records older than days
func pruneHistory(out io.Writer, container *app.Container, days int, now time.Time) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}

	removed, err := store.Prune(now.AddDate(0, 0, -days))
	if err != nil {
		return fmt.Errorf("failed to prune old history: %w", err)
	}

	fmt.Fprintf(out, "Removed %d record(s) older than %d days.\n", removed, days)
	return nil
}
