package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vitalics/folio/analytics"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var (
		period string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print analytics for a period (today, week, month, year, all)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := analytics.NewStore(cfg.Analytics.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			name, from, to := analytics.PeriodRange(period, time.Now())
			stats, err := store.Stats(cmd.Context(), from, to, limit)
			if err != nil {
				return err
			}
			stats.Period = name
			return printStats(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "week", "time period")
	cmd.Flags().IntVarP(&limit, "limit", "n", analytics.DefaultStatsLimit, "rows per breakdown")
	return cmd
}

func printStats(w io.Writer, s *analytics.Stats) error {
	fmt.Fprintf(w, "Period: %s\n\n", s.Period)

	summary := tablewriter.NewTable(w)
	summary.Header("Views", "Unique visitors", "Bot views", "Searches")
	if err := summary.Append(
		strconv.Itoa(s.TotalViews),
		strconv.Itoa(s.UniqueVisitors),
		strconv.Itoa(s.BotViews),
		strconv.Itoa(s.TotalSearches),
	); err != nil {
		return err
	}
	if err := summary.Render(); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	pages := make([][]string, 0, len(s.TopPages))
	for _, p := range s.TopPages {
		pages = append(pages, []string{p.Path, strconv.Itoa(p.Views)})
	}
	tables := []struct {
		title  string
		header []string
		rows   [][]string
	}{
		{"Top pages", []string{"Path", "Views"}, pages},
		{"Referrers", []string{"Source", "Views"}, dimensionRows(s.TopReferrers)},
		{"Browsers", []string{"Browser", "Views"}, dimensionRows(s.Browsers)},
		{"Devices", []string{"Device", "Views"}, dimensionRows(s.Devices)},
		{"Bots", []string{"Bot", "Views"}, dimensionRows(s.TopBots)},
		{"Searches", []string{"Query", "Count", "Hits"}, queryRows(s.TopQueries)},
		{"Searches without results", []string{"Query", "Count", "Hits"}, queryRows(s.ZeroResultQueries)},
	}
	for _, tb := range tables {
		if err := printTable(w, tb.title, tb.header, tb.rows); err != nil {
			return err
		}
	}
	return nil
}

// printTable renders one breakdown; empty breakdowns are skipped.
func printTable(w io.Writer, title string, header []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\n%s\n", title)
	table := tablewriter.NewTable(w)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("%s: %w", title, err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render %s: %w", title, err)
	}
	return nil
}

func dimensionRows(stats []analytics.DimensionStat) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, d := range stats {
		rows = append(rows, []string{d.Name, strconv.Itoa(d.Count)})
	}
	return rows
}

func queryRows(stats []analytics.QueryStat) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, q := range stats {
		rows = append(rows, []string{q.Query, strconv.Itoa(q.Count), strconv.Itoa(q.Hits)})
	}
	return rows
}
