// Package sync implements the sync command.
package sync

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/launchsync"
	"github.com/agentstation/launchsync/internal/appcontext"
	"github.com/agentstation/launchsync/internal/cmd/output"
	"github.com/agentstation/launchsync/internal/cmd/table"
	lsync "github.com/agentstation/launchsync/internal/sync"
	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/errors"
)

// all runs every enabled category.
const all = "all"

// Flags holds the sync command flags.
type Flags struct {
	Limit int
	Year  int
}

// NewCommand creates the sync command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:       "sync <category|all>",
		GroupID:   "core",
		Short:     "Run a sync category against the providers",
		Args:      cobra.ExactArgs(1),
		ValidArgs: append(categoryNames(), all, string(lsync.MissionsByYear)),
		Long: `Sync fetches one category from its provider, matches the records
against stored entities, and saves the merged result. Every run is recorded
and reported by "launchsync status".

Categories:
  missions                  past launches
  upcoming                  scheduled launches
  launch_sites              pads grouped by location
  launch_vehicles           launcher configurations
  engines                   verified engines (needs the verification provider)
  verified_launch_vehicles  verified vehicles (needs the verification provider)
  missions_year             launches of one year, requires --year
  all                       every enabled category`,
		Example: `  launchsync sync missions
  launchsync sync upcoming --limit 20
  launchsync sync missions_year --year 2019
  launchsync sync all -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.Service()
			if err != nil {
				return err
			}
			if flags.Limit <= 0 {
				flags.Limit = app.SyncLimit()
			}
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			if format == "" {
				format = output.DetectFormat("")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.SyncTimeout)
			defer cancel()

			results, runErr := Execute(ctx, svc, args[0], flags)
			if len(results) > 0 {
				if err := write(cmd.OutOrStdout(), format, results); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 0, "records to fetch (default from config)")
	cmd.Flags().IntVar(&flags.Year, "year", 0, "calendar year for missions_year")

	return cmd
}

// Execute runs the named target and returns every result that started.
func Execute(ctx context.Context, svc launchsync.Syncer, target string, flags *Flags) (map[lsync.Category]lsync.Result, error) {
	switch target {
	case all:
		return svc.RunAll(ctx, flags.Limit)
	case string(lsync.MissionsByYear):
		if flags.Year == 0 {
			return nil, errors.NewValidationError("year", flags.Year, "--year is required for missions_year")
		}
		r, err := svc.RunYear(ctx, flags.Year, flags.Limit)
		return single(r, err)
	}

	category, err := lsync.ParseCategory(target)
	if err != nil {
		return nil, err
	}
	r, err := svc.RunSync(ctx, category, flags.Limit)
	return single(r, err)
}

func single(r lsync.Result, err error) (map[lsync.Category]lsync.Result, error) {
	if r.RunID == "" && err != nil {
		return nil, err
	}
	return map[lsync.Category]lsync.Result{r.Category: r}, err
}

func write(w io.Writer, format output.Format, results map[lsync.Category]lsync.Result) error {
	formatter := output.NewFormatter(format)
	if format.Tabular() {
		return formatter.Format(w, table.ResultsToTableData(results))
	}
	if len(results) == 1 {
		for _, r := range results {
			return formatter.Format(w, r)
		}
	}
	return formatter.Format(w, results)
}

func categoryNames() []string {
	cats := lsync.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}
