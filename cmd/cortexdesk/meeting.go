package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var meetingCmd = &cobra.Command{
	Use:   "meeting",
	Short: "Meeting transcripts and schedule proposals",
}

var meetingSubmitCmd = &cobra.Command{
	Use:   "submit [transcript-file]",
	Short: "Submit a meeting transcript for summarization",
	Long:  `Submits a transcript file, or stdin when no file is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMeetingSubmit,
}

var meetingSummariesCmd = &cobra.Command{
	Use:   "summaries",
	Short: "List stored meeting summaries",
	RunE:  runMeetingSummaries,
}

var meetingProposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "Show schedule proposals",
	RunE:  runMeetingProposals,
}

var meetingTitle string

func init() {
	meetingCmd.AddCommand(meetingSubmitCmd, meetingSummariesCmd, meetingProposalsCmd)
	meetingSubmitCmd.Flags().StringVar(&meetingTitle, "title", "", "Meeting title")
}

func runMeetingSubmit(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.client.SubmitTranscript(cmd.Context(), strPtr(meetingTitle), string(data), e.credential())
	if err != nil {
		return fmt.Errorf("transcript submission failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Meeting %d summarized\n\n", res.MeetingID)
	if noColor {
		fmt.Fprintln(out, res.Summary)
	} else {
		fmt.Fprint(out, renderMarkdown(res.Summary))
	}
	if len(res.DetectedTasks) > 0 {
		fmt.Fprintf(out, "\nDetected %d task(s):\n", len(res.DetectedTasks))
		for _, t := range res.DetectedTasks {
			fmt.Fprintf(out, "  #%d %s\n", t.ID, t.Title)
		}
	}
	return nil
}

func runMeetingSummaries(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	summaries, err := e.client.MeetingSummaries(cmd.Context(), e.credential())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No meeting summaries")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tTITLE\tSUMMARY")
	for _, m := range summaries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.ID, m.CreatedAt, m.Title, truncate(m.Summary, 60))
	}
	return w.Flush()
}

func runMeetingProposals(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	proposals, err := e.client.ScheduleProposals(cmd.Context(), e.credential())
	if err != nil {
		return err
	}
	if len(proposals) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No schedule proposals")
		return nil
	}

	// Proposal shape is backend-defined; print it as-is.
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(proposals)
}
