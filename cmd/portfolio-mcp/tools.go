package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quantfolio/portfolio-mcp/internal/dispatch"
	"github.com/quantfolio/portfolio-mcp/internal/portfolio"
	"github.com/quantfolio/portfolio-mcp/internal/session"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
	"github.com/quantfolio/portfolio-mcp/internal/toolset"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the compiled-in tool catalog",
		RunE:  runTools,
	}
}

func runTools(cmd *cobra.Command, _ []string) error {
	registry := tool.NewRegistry()
	if err := toolset.Register(registry, toolset.Deps{Book: portfolio.Demo()}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	byCategory := registry.ListByCategory()

	for _, category := range registry.Categories() {
		fmt.Fprintf(out, "%s:\n", category)

		for _, name := range byCategory[category] {
			def, err := registry.Lookup(name)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "  %-32s [%s] %s\n", def.Name, def.RiskLevel, def.Description)
		}
	}

	nop := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := dispatch.NewDispatcher(nop, registry, session.NewStore(nop, 0), 0)

	health := dispatcher.HealthCheck()
	fmt.Fprintf(out, "\nstatus=%v tools_registered=%v active_sessions=%v\n",
		health["status"], health["tools_registered"], health["active_sessions"])

	return nil
}
