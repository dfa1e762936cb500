package commands

import (
	"fmt"
	"io"
	"strings"

	"stagedates/internal/chrono"
	"stagedates/internal/showfeed/history"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "The amount of runs to show.")
	rootCmd.AddCommand(historyCmd)
}

func renderRuns(w io.Writer, runs []history.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Run", "Started", "Took", "Status", "Shows", "Error"})

	for _, run := range runs {
		shows := make([]string, 0, len(run.Shows))
		for _, show := range run.Shows {
			shows = append(shows, fmt.Sprintf("%s: %s (%d)", show.Slug, show.Tier, show.Events))
		}
		t.AppendRow(table.Row{
			run.Id[:min(8, len(run.Id))],
			run.StartedAt.Format("2006-01-02 15:04"),
			run.FinishedAt.Sub(run.StartedAt),
			run.Status,
			strings.Join(shows, "\n"),
			run.Error,
		})
		t.AppendSeparator()
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Prints the most recent scrape runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.History.Database == "" {
			return fmt.Errorf("run history is disabled in the config")
		}

		clock, err := chrono.NewStandardImpl()
		if err != nil {
			return err
		}
		database, err := history.Open(cfg.History.Database)
		if err != nil {
			return err
		}
		defer database.Close()

		runs, err := history.NewStore(database).Recent(cmd.Context(), historyLimit, clock.Location())
		if err != nil {
			return err
		}
		renderRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}
