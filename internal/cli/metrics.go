package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/focuslog/internal/mcp"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display focus metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include completed work and break phases, skipped breaks, focus
minutes, how many work items were named or left at their default label,
and completed work phases per day.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		// Table format.
		fmt.Printf("Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Work phases completed:", metrics.WorkPhasesCompleted)
		fmt.Printf("  %-24s %d\n", "Breaks completed:", metrics.BreakPhasesCompleted)
		fmt.Printf("  %-24s %d\n", "Breaks skipped:", metrics.BreaksSkipped)
		fmt.Printf("  %-24s %.1f\n", "Focus minutes:", metrics.FocusMinutes)
		fmt.Printf("  %-24s %d\n", "Items created:", metrics.ItemsCreated)
		fmt.Printf("  %-24s %d\n", "Items named:", metrics.ItemsNamed)
		fmt.Printf("  %-24s %d\n", "Items left unnamed:", metrics.ItemsLeftDefault)
		fmt.Printf("  %-24s %d\n", "Settings changes:", metrics.SettingsChanges)
		if metrics.StorageWarnings > 0 {
			fmt.Printf("  %-24s %d\n", "Storage warnings:", metrics.StorageWarnings)
		}

		if len(metrics.CompletionsByDay) > 0 {
			fmt.Println("\n  Work phases by day:")
			days := make([]string, 0, len(metrics.CompletionsByDay))
			for day := range metrics.CompletionsByDay {
				days = append(days, day)
			}
			sort.Strings(days)
			for _, day := range days {
				fmt.Printf("    %-20s %d\n", day+":", metrics.CompletionsByDay[day])
			}
		}

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past. Empty means 7d.
func parseSinceDuration(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = "7d"
	}
	return mcp.ParseSince(s, time.Now())
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
