package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	flmcp "github.com/valter-silva-au/focuslog/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the focuslog MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the focuslog MCP server on stdio",
	Long: `Start the focuslog MCP server on stdio transport.

The timer runs inside the server process for as long as it is up. The server
exposes it as MCP tools that AI assistants can call: get_status,
toggle_timer, reset_timer, skip_break, apply_settings, list_log, name_item,
edit_item, reset_total, clear_log, get_metrics, get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireController(); err != nil {
			return err
		}

		srv := flmcp.NewServer(Controller, MetricsCalc, AlertEngine, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		go func() {
			_ = Controller.Run(ctx)
		}()

		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
