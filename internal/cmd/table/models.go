// Package table converts sync results, runs, and health reports into
// table rows for CLI output.
package table

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/agentstation/launchsync/internal/status"
	"github.com/agentstation/launchsync/internal/sync"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// ResultsToTableData converts sync results to table format, one row per
// category in name order.
func ResultsToTableData(results map[sync.Category]sync.Result) Data {
	cats := make([]sync.Category, 0, len(results))
	for c := range results {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		r := results[c]
		rows = append(rows, []string{
			string(c),
			r.RunID,
			strconv.Itoa(r.Fetched),
			strconv.Itoa(r.Created),
			strconv.Itoa(r.Updated),
			strconv.Itoa(r.Skipped),
		})
	}
	return Data{
		Headers:         []string{"Category", "Run", "Fetched", "Created", "Updated", "Skipped"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight},
	}
}

// RunsToTableData converts sync runs to table format. Wide output adds the
// source and error columns.
func RunsToTableData(runs []status.Run, wide bool) Data {
	headers := []string{"Category", "State", "Started", "Duration", "Records"}
	align := []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight}
	if wide {
		headers = append([]string{"ID"}, headers...)
		headers = append(headers, "Source", "Error")
		align = append([]Align{AlignLeft}, align...)
		align = append(align, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		row := []string{
			r.Type,
			string(r.State),
			r.StartedAt.Local().Format(time.DateTime),
			formatDuration(r),
			formatRecords(r.RecordsSynced),
		}
		if wide {
			row = append([]string{r.ID}, row...)
			row = append(row, r.SourceAPI, truncate(r.Error, 60))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// HealthToTableData converts a health report to table format.
func HealthToTableData(report status.Report) Data {
	names := make([]string, 0, len(report.Categories))
	for name := range report.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		ind := report.Categories[name]
		up := "UP"
		if !ind.Up {
			up = "DOWN"
		}
		rows = append(rows, []string{
			name,
			up,
			detail(ind.Details, "status"),
			detail(ind.Details, "lastSyncTime"),
			detail(ind.Details, "lastSuccessTime"),
			detail(ind.Details, "recentSuccessRate"),
		})
	}
	if report.Ledger != nil {
		up, reach := "UP", "REACHABLE"
		if !report.Ledger.Up {
			up, reach = "DOWN", "UNREACHABLE"
		}
		rows = append(rows, []string{"truthledger (provider)", up, reach, "-", "-", "-"})
	}
	return Data{
		Headers: []string{"Category", "Health", "Status", "Last Sync", "Last Success", "Recent Success"},
		Rows:    rows,
	}
}

func formatDuration(r status.Run) string {
	if r.CompletedAt == nil {
		return "-"
	}
	return r.Duration().Round(time.Millisecond).String()
}

func formatRecords(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

func detail(details map[string]any, key string) string {
	v, ok := details[key]
	if !ok {
		return "-"
	}
	return fmt.Sprint(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
