package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/focuslog/internal/core"
)

var totalCmd = &cobra.Command{
	Use:   "total",
	Short: "Show or reset the total work time",
}

var totalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the total work time as HH:MM:SS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireController(); err != nil {
			return err
		}
		fmt.Println(core.FormatTotal(Controller.Snapshot().TotalWorkTime))
		return nil
	},
}

var totalResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the total work time to zero",
	Long:  `Reset the total work time to zero. Logged work items are kept.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireController(); err != nil {
			return err
		}
		if err := reportPersist(Controller.ResetTotal()); err != nil {
			return fmt.Errorf("resetting total: %w", err)
		}
		fmt.Println("Total work time reset to 00:00:00.")
		return nil
	},
}

func init() {
	totalCmd.AddCommand(totalShowCmd)
	totalCmd.AddCommand(totalResetCmd)
	rootCmd.AddCommand(totalCmd)
}
