package commands

import (
	"fmt"
	"io"

	"stagedates/internal/chrono"
	"stagedates/internal/showfeed"
	"stagedates/pkg/osutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func renderSummary(w io.Writer, summary showfeed.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("run %s (%s)", summary.RunId, summary.Status))
	t.AppendHeader(table.Row{"Show", "Tier", "Events", "Sources", "Error"})

	for _, show := range summary.Shows {
		errText := ""
		if show.Err != nil {
			errText = show.Err.Error()
		}
		t.AppendRow(table.Row{show.Title, show.Tier, show.Events, show.Fetched, errText})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrapes every venue once and writes the schedule document.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := osutil.SignalContext(cmd.Context())
		defer cancel()

		tel, shutdown := setupTelemetry(ctx, "stagedates")
		defer shutdown()

		clock, err := chrono.NewStandardImpl()
		if err != nil {
			return fmt.Errorf("load venue time zone: %w", err)
		}
		p := newPipeline(cfg, clock, tel)
		defer p.Close()

		summary, err := p.service.Run(ctx)
		if err != nil {
			return err
		}
		renderSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}
