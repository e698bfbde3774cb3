// Package status implements the status command.
package status

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/launchsync"
	"github.com/agentstation/launchsync/internal/appcontext"
	"github.com/agentstation/launchsync/internal/cmd/output"
	"github.com/agentstation/launchsync/internal/cmd/table"
	runs "github.com/agentstation/launchsync/internal/status"
	"github.com/agentstation/launchsync/internal/sync"
	"github.com/agentstation/launchsync/pkg/constants"
)

// Flags holds the status command flags.
type Flags struct {
	Limit  int
	Health bool
}

// NewCommand creates the status command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "status [category]",
		GroupID: "core",
		Short:   "Show sync run history and health",
		Args:    cobra.MaximumNArgs(1),
		Long: `Status reports the newest run of every category. With a category it
lists that category's recent runs, newest first. With --health it judges
every category from its latest run and exits non-zero when any is down.`,
		Example: `  launchsync status
  launchsync status missions --limit 5
  launchsync status --health -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.Service()
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			if format == "" {
				format = output.DetectFormat("")
			}

			w := cmd.OutOrStdout()
			ctx := cmd.Context()
			switch {
			case flags.Health:
				return showHealth(ctx, w, svc, format)
			case len(args) == 1:
				return showRuns(ctx, w, svc, format, args[0], flags.Limit)
			default:
				return showLatest(ctx, w, svc, format)
			}
		},
	}

	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", constants.DefaultRunsLimit, "runs to list for a category")
	cmd.Flags().BoolVar(&flags.Health, "health", false, "report category health")

	return cmd
}

func showLatest(ctx context.Context, w io.Writer, svc launchsync.Status, format output.Format) error {
	latest, err := svc.Latest(ctx)
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(format)
	if !format.Tabular() {
		return formatter.Format(w, latest)
	}

	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]runs.Run, 0, len(names))
	for _, name := range names {
		if r := latest[name]; r != nil {
			list = append(list, *r)
		}
	}
	return formatter.Format(w, table.RunsToTableData(list, format == output.FormatWide))
}

func showRuns(ctx context.Context, w io.Writer, svc launchsync.Status, format output.Format, category string, limit int) error {
	if category != string(sync.MissionsByYear) {
		if _, err := sync.ParseCategory(category); err != nil {
			return err
		}
	}
	list, err := svc.Runs(ctx, category, limit)
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(format)
	if format.Tabular() {
		return formatter.Format(w, table.RunsToTableData(list, format == output.FormatWide))
	}
	return formatter.Format(w, list)
}

func showHealth(ctx context.Context, w io.Writer, svc launchsync.Status, format output.Format) error {
	report, err := svc.Health(ctx)
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(format)
	if format.Tabular() {
		err = formatter.Format(w, table.HealthToTableData(report))
	} else {
		err = formatter.Format(w, report)
	}
	if err != nil {
		return err
	}
	if !report.Up {
		return fmt.Errorf("unhealthy, down: %s", strings.Join(down(report), ", "))
	}
	return nil
}

func down(report runs.Report) []string {
	var names []string
	for name, ind := range report.Categories {
		if !ind.Up {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
