package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fentz26/cortexdesk/internal/ingest"
	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Upload documents to the knowledge backend",
	Long: `Uploads one or more documents. Every file is checked against the size limit
before anything is sent. With --watch, new files dropped into a directory are
ingested as they appear.`,
	RunE: runIngest,
}

var textCmd = &cobra.Command{
	Use:   "text [text]",
	Short: "Index a note",
	Long:  `Indexes raw text. Without an argument the text is read from stdin.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runText,
}

var (
	watchDir   string
	textSource string
)

func init() {
	ingestCmd.Flags().StringVar(&watchDir, "watch", "", "Watch a directory and ingest new files")
	textCmd.Flags().StringVar(&textSource, "source", "", "Source label stored with the text")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if watchDir == "" && len(args) == 0 {
		return fmt.Errorf("no files given (pass paths or --watch <dir>)")
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	coord := e.coordinator()
	out := cmd.OutOrStdout()

	if watchDir != "" {
		return watchAndIngest(cmd.Context(), e, coord, out)
	}

	files, err := ingest.OpenFiles(args)
	if err != nil {
		return err
	}

	outcome, err := coord.Ingest(cmd.Context(), files, e.credential())
	if outcome != nil {
		printOutcome(out, outcome)
	}
	if err != nil {
		return err
	}
	if n := outcome.Failed(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(outcome.Results))
	}
	return nil
}

func watchAndIngest(ctx context.Context, e *env, coord *ingest.Coordinator, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := ingest.NewWatcher(watchDir, coord, e.credential()).WithLogger(e.logger)
	w.OnBatch(func(outcome *models.IngestionOutcome, err error) {
		if outcome != nil {
			printOutcome(out, outcome)
		}
		if err != nil {
			fmt.Fprintf(out, "Batch failed: %v\n", err)
		}
	})
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", watchDir)
	<-ctx.Done()
	return nil
}

func printOutcome(out io.Writer, outcome *models.IngestionOutcome) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSTATUS\tCHUNKS\tTASKS\tERROR")
	for _, r := range outcome.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Filename, r.Status, intOrDash(r.ChunksIndexed), intOrDash(r.TasksExtracted), r.Error)
	}
	w.Flush()

	if len(outcome.DetectedTasks) > 0 {
		fmt.Fprintf(out, "\nDetected %d task(s):\n", len(outcome.DetectedTasks))
		for _, t := range outcome.DetectedTasks {
			fmt.Fprintf(out, "  #%d %s\n", t.ID, t.Title)
		}
	}
}

func runText(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.coordinator().IngestText(cmd.Context(), text, textSource, e.credential())
	if err != nil {
		if errors.Is(err, ingest.ErrValidation) {
			return fmt.Errorf("nothing to index: text is empty")
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunk(s)\n", res.ChunksIndexed)
	for _, t := range res.DetectedTasks {
		fmt.Fprintf(cmd.OutOrStdout(), "  detected #%d %s\n", t.ID, t.Title)
	}
	return nil
}

func intOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *p)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
