package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/focuslog/internal/core"
)

var (
	settingsWork  time.Duration
	settingsBreak time.Duration
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the work and break durations",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configured durations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireController(); err != nil {
			return err
		}
		d := Controller.Snapshot().Durations
		fmt.Printf("  %-8s %s\n", "Work:", formatMinutes(d.WorkMinutes))
		fmt.Printf("  %-8s %s\n", "Break:", formatMinutes(d.BreakMinutes))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the work and break durations",
	Long: `Change the work and break durations. Values are Go durations such as
25m, 90s or 1m30s. A flag that is not given keeps its current value.

Work may be at most 120 minutes, break at most 60 minutes, and neither may
be zero. The new durations are written to .focuslog.yaml.`,
	Example: `  focuslog settings set --work 50m --break 10m
  focuslog settings set --break 4m30s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireController(); err != nil {
			return err
		}
		if !cmd.Flags().Changed("work") && !cmd.Flags().Changed("break") {
			return fmt.Errorf("nothing to change: pass --work and/or --break")
		}

		current := Controller.Snapshot().Durations
		workMin, workSec := core.SplitMinutes(current.WorkMinutes)
		breakMin, breakSec := core.SplitMinutes(current.BreakMinutes)
		if cmd.Flags().Changed("work") {
			var err error
			if workMin, workSec, err = splitDuration(settingsWork); err != nil {
				return fmt.Errorf("--work: %w", err)
			}
		}
		if cmd.Flags().Changed("break") {
			var err error
			if breakMin, breakSec, err = splitDuration(settingsBreak); err != nil {
				return fmt.Errorf("--break: %w", err)
			}
		}

		if err := Controller.ApplySettingsForm(workMin, workSec, breakMin, breakSec); err != nil {
			return fmt.Errorf("applying settings: %w", err)
		}

		snap := Controller.Snapshot()
		if snap.LastWarning != "" {
			fmt.Printf("warning: %s\n", snap.LastWarning)
		}
		fmt.Printf("Work %s, break %s.\n", formatMinutes(snap.Durations.WorkMinutes), formatMinutes(snap.Durations.BreakMinutes))
		return nil
	},
}

// splitDuration converts d into the whole minutes and seconds the settings
// form takes.
func splitDuration(d time.Duration) (int, int, error) {
	if d < 0 {
		return 0, 0, fmt.Errorf("duration must not be negative, got %s", d)
	}
	if d%time.Second != 0 {
		return 0, 0, fmt.Errorf("duration must be whole seconds, got %s", d)
	}
	total := int(d / time.Second)
	return total / 60, total % 60, nil
}

func init() {
	settingsSetCmd.Flags().DurationVar(&settingsWork, "work", 0, "Work phase length (e.g. 25m)")
	settingsSetCmd.Flags().DurationVar(&settingsBreak, "break", 0, "Break phase length (e.g. 5m)")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
