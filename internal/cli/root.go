package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "focuslog",
	Short: "focuslog - a work/break timer that logs what you worked on",
	Long: `focuslog runs a work/break countdown timer in the terminal. Every completed
work phase is logged as a work item and you are asked to name it, one
prompt at a time. Total work time accumulates across sessions.

Run "focuslog run" for the interactive timer. The other commands inspect and
edit the work log, change durations, and report focus metrics.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("focuslog %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// requireController returns an error when app.go has not wired the timer.
func requireController() error {
	if Controller == nil {
		return fmt.Errorf("timer controller not initialized")
	}
	return nil
}
