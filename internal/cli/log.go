package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/focuslog/internal/core"
	"github.com/valter-silva-au/focuslog/pkg/models"
)

var (
	logListJSON  bool
	logListLimit int
	logClearYes  bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Inspect and edit the work log",
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged work items, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireController(); err != nil {
			return err
		}
		if logListLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}

		items := Controller.Items()
		if logListLimit > 0 && len(items) > logListLimit {
			items = items[:logListLimit]
		}

		if logListJSON {
			data, err := json.MarshalIndent(items, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting work log as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(items) == 0 {
			fmt.Println("No work items logged.")
			return nil
		}
		printWorkLog(items)
		fmt.Printf("\nTotal work time: %s\n", core.FormatTotal(Controller.Snapshot().TotalWorkTime))
		return nil
	},
}

var logEditCmd = &cobra.Command{
	Use:   "edit <item-id> <description...>",
	Short: "Change the description of a logged work item",
	Long: `Change the description of a logged work item. The id is shown by
"focuslog log list". A blank description leaves the item unchanged.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireController(); err != nil {
			return err
		}

		id := args[0]
		text := strings.Join(args[1:], " ")
		err := Controller.EditItem(id, text)
		if errors.Is(err, core.ErrItemNotFound) {
			return fmt.Errorf("no work item with id %s", id)
		}
		if err := reportPersist(err); err != nil {
			return fmt.Errorf("editing %s: %w", id, err)
		}

		if strings.TrimSpace(text) == "" {
			fmt.Printf("Item %s unchanged.\n", id)
			return nil
		}
		fmt.Printf("Item %s updated.\n", id)
		return nil
	},
}

var logClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every logged work item",
	Long: `Delete every logged work item. The total work time is kept; use
"focuslog total reset" to zero it. Requires --yes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireController(); err != nil {
			return err
		}
		if !logClearYes {
			return fmt.Errorf("refusing to clear the work log without --yes")
		}

		count := len(Controller.Items())
		if err := reportPersist(Controller.ClearLog()); err != nil {
			return fmt.Errorf("clearing work log: %w", err)
		}
		fmt.Printf("Cleared %d work item(s).\n", count)
		return nil
	},
}

// printWorkLog prints items as a table in the order given.
func printWorkLog(items []models.WorkLogItem) {
	fmt.Printf("  %-36s %-8s %-8s %s\n", "ID", "TIME", "LENGTH", "DESCRIPTION")
	fmt.Printf("  %-36s %-8s %-8s %s\n", "--", "----", "------", "-----------")
	for _, item := range items {
		fmt.Printf("  %-36s %-8s %-8s %s\n",
			item.ID,
			core.FormatItemTime(item.Timestamp),
			core.FormatItemDuration(item.Duration),
			item.Description,
		)
	}
}

// reportPersist prints persistence failures as warnings and returns any
// other error unchanged.
func reportPersist(err error) error {
	var perr *core.PersistError
	if errors.As(err, &perr) {
		fmt.Printf("warning: %s (the change was not saved)\n", perr)
		return nil
	}
	return err
}

func init() {
	logListCmd.Flags().BoolVar(&logListJSON, "json", false, "Output the work log as JSON")
	logListCmd.Flags().IntVar(&logListLimit, "limit", 0, "Show at most this many items (0 for all)")
	logClearCmd.Flags().BoolVar(&logClearYes, "yes", false, "Confirm deleting the whole work log")

	logCmd.AddCommand(logListCmd)
	logCmd.AddCommand(logEditCmd)
	logCmd.AddCommand(logClearCmd)
	rootCmd.AddCommand(logCmd)
}
