package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/cortexdesk/internal/tui"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantic search over ingested documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var (
	maxResults   int
	contextLimit int
	rawAnswer    bool
)

func init() {
	searchCmd.Flags().IntVarP(&maxResults, "limit", "n", 10, "Maximum number of results")
	askCmd.Flags().IntVar(&contextLimit, "context", 5, "Number of source chunks to consult")
	askCmd.Flags().BoolVar(&rawAnswer, "raw", false, "Print the answer without markdown rendering")
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	query := strings.Join(args, " ")
	resp, err := e.client.Search(cmd.Context(), query, maxResults, e.credential())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No results found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tSOURCE\tTEXT")
	for _, r := range resp.Results {
		fmt.Fprintf(w, "%.2f\t%s\t%s\n", r.Similarity, r.Source, truncate(r.Text, 80))
	}
	return w.Flush()
}

func runAsk(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	question := strings.Join(args, " ")
	ans, err := e.client.Ask(cmd.Context(), question, contextLimit, e.credential())
	if err != nil {
		return fmt.Errorf("question failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if rawAnswer || noColor {
		fmt.Fprintln(out, strings.TrimSpace(ans.Answer))
	} else {
		fmt.Fprint(out, renderMarkdown(ans.Answer))
	}

	if len(ans.Citations) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, c := range ans.Citations {
			fmt.Fprintf(out, "  • %s (%.2f)\n", c.Source, c.Score)
		}
	}
	return nil
}

func renderMarkdown(md string) string {
	return tui.RenderMarkdown(md, terminalWidth())
}

func terminalWidth() int {
	if w, _, err := termSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
