package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/fentz26/cortexdesk/internal/tasks"
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "Review detected tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTasksList,
}

var tasksApproveCmd = &cobra.Command{
	Use:   "approve [task-id]",
	Short: "Approve a detected task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDecision("approve"),
}

var tasksRejectCmd = &cobra.Command{
	Use:   "reject [task-id]",
	Short: "Reject a detected task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDecision("reject"),
}

var tasksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a task",
	RunE:  runTasksAdd,
}

var (
	taskStatus   string
	taskView     string
	taskFind     string
	taskTitle    string
	taskDesc     string
	taskPriority string
	taskDue      string
)

func init() {
	tasksCmd.AddCommand(tasksListCmd, tasksApproveCmd, tasksRejectCmd, tasksAddCmd)

	tasksListCmd.Flags().StringVar(&taskStatus, "status", "", "Server-side status filter (detected, approved, rejected, pending)")
	tasksListCmd.Flags().StringVar(&taskView, "view", "all", "Local view: all, detected, approved or rejected")
	tasksListCmd.Flags().StringVar(&taskFind, "find", "", "Fuzzy-match task titles")

	tasksAddCmd.Flags().StringVar(&taskTitle, "title", "", "Task title (required)")
	tasksAddCmd.Flags().StringVar(&taskDesc, "desc", "", "Task description")
	tasksAddCmd.Flags().StringVar(&taskPriority, "priority", "", "Task priority")
	tasksAddCmd.Flags().StringVar(&taskDue, "due", "", "Due date")
	tasksAddCmd.MarkFlagRequired("title")
}

func runTasksList(cmd *cobra.Command, args []string) error {
	view, err := tasks.ParseView(taskView)
	if err != nil {
		return err
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	list, err := e.taskStore().Load(cmd.Context(), taskStatus)
	if err != nil {
		return err
	}
	list = view.Apply(list)
	if taskFind != "" {
		list = tasks.Search(list, taskFind)
	}

	printTasks(cmd.OutOrStdout(), list)
	return nil
}

func printTasks(out io.Writer, list []models.Task) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No tasks found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE")
	for _, t := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status, strOr(t.Priority, "-"), strOr(t.DueDate, "-"), truncate(t.Title, 60))
	}
	w.Flush()
}

func runTaskDecision(action string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}

		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		store := e.taskStore()
		// Known tasks let the store refuse decisions on terminal ones locally.
		if _, err := store.Load(cmd.Context(), ""); err != nil {
			return err
		}

		var msg string
		if action == "approve" {
			msg, err = store.Approve(cmd.Context(), id)
		} else {
			msg, err = store.Reject(cmd.Context(), id)
		}
		if err != nil {
			return err
		}
		if msg == "" {
			msg = fmt.Sprintf("Task %d %s", id, pastTense[action])
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	}
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	nt := models.NewTask{
		Title:       taskTitle,
		Description: strPtr(taskDesc),
		Priority:    strPtr(taskPriority),
		DueDate:     strPtr(taskDue),
	}
	t, err := e.taskStore().Create(cmd.Context(), nt)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created task: %d\n", t.ID)
	return nil
}

var pastTense = map[string]string{"approve": "approved", "reject": "rejected"}

func strOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
