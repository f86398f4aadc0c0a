package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/focuslog/internal/core"
	"github.com/valter-silva-au/focuslog/pkg/models"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show durations, total work time and the work log size",
	Long: `Show the configured work and break durations, the accumulated total work
time and how many work items are logged.

The countdown itself lives only inside a running "focuslog run" or
"focuslog mcp serve" process, so a fresh status always shows an idle clock
at the start of a work phase.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireController(); err != nil {
			return err
		}

		snap := Controller.Snapshot()
		if statusJSON {
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting status as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		printSnapshot(snap)
		return nil
	},
}

func printSnapshot(snap models.Snapshot) {
	state := "paused"
	if snap.State.Running {
		state = "running"
	}
	fmt.Printf("%s - %s Time (%s)\n\n", core.FormatClock(snap.State.SecondsRemaining), snap.State.Phase.Label(), state)
	fmt.Printf("  %-18s %s\n", "Work duration:", formatMinutes(snap.Durations.WorkMinutes))
	fmt.Printf("  %-18s %s\n", "Break duration:", formatMinutes(snap.Durations.BreakMinutes))
	fmt.Printf("  %-18s %s\n", "Total work time:", core.FormatTotal(snap.TotalWorkTime))
	fmt.Printf("  %-18s %d\n", "Logged items:", snap.ItemCount)
	if snap.State.StartedAt != nil {
		fmt.Printf("  %-18s %s\n", "Started at:", snap.State.StartedAt.Local().Format(time.Kitchen))
	}
	if snap.NamingItemID != "" {
		fmt.Printf("  %-18s %s (%d more queued)\n", "Waiting for name:", snap.NamingLabel, snap.PendingNames)
	}
	if snap.LastWarning != "" {
		fmt.Printf("\n  warning: %s\n", snap.LastWarning)
	}
}

// formatMinutes renders a duration in minutes the way the settings form
// splits it, e.g. "25:00" or "0:30".
func formatMinutes(minutes float64) string {
	m, s := core.SplitMinutes(minutes)
	return fmt.Sprintf("%d:%02d", m, s)
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status as JSON")
	rootCmd.AddCommand(statusCmd)
}
