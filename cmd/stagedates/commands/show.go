package commands

import (
	"io"
	"slices"

	"stagedates/internal/showfeed/schedule"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

func optional(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}

func renderDocument(w io.Writer, doc schedule.Document) {
	slugs := make([]string, 0, len(doc.Shows))
	for slug := range doc.Shows {
		slugs = append(slugs, slug)
	}
	slices.Sort(slugs)

	for _, slug := range slugs {
		production := doc.Shows[slug]

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle(production.Title)
		t.AppendRows([]table.Row{
			{"Theater", production.Theater},
			{"Regie", optional(production.Director)},
			{"Autor", optional(production.Author)},
			{"Dauer", optional(production.Duration)},
		})
		t.AppendSeparator()
		for _, event := range production.Events {
			t.AppendRow(table.Row{event.DisplayDate() + " " + event.DisplayTime(), event.TicketUrl})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	}
}

var showCmd = &cobra.Command{
	Use:   "show [path/to/shows.json]",
	Short: "Prints a schedule document, defaults to the configured output.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Output
		if len(args) > 0 {
			path = args[0]
		}
		doc, err := schedule.Read(path)
		if err != nil {
			return err
		}
		renderDocument(cmd.OutOrStdout(), doc)
		return nil
	},
}
