package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fentz26/cortexdesk/internal/ingest"
	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/fentz26/cortexdesk/internal/tasks"
)

var pastTense = map[string]string{"approve": "approved", "reject": "rejected"}

func (a *App) fetchTasks() tea.Cmd {
	if a.deps.Tasks == nil {
		return nil
	}
	a.loading = true
	store, ctx := a.deps.Tasks, a.ctx
	return func() tea.Msg {
		loaded, err := store.Load(ctx, "")
		if err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{loaded}
	}
}

func (a *App) refreshAll() tea.Cmd {
	cmds := []tea.Cmd{a.fetchTasks()}
	ctx := a.ctx
	if p := a.deps.Confirmations; p != nil {
		cmds = append(cmds, func() tea.Msg {
			if err := p.Refresh(ctx); err != nil {
				return errMsg{err}
			}
			return confirmationsMsg{p.Pending()}
		})
	}
	if m := a.deps.Health; m != nil {
		cmds = append(cmds, func() tea.Msg {
			return connectivityMsg{m.Check(ctx)}
		})
	}
	return tea.Batch(cmds...)
}

// decideSelected approves or rejects the selection of the active pane.
func (a *App) decideSelected(action string) tea.Cmd {
	if a.mode == modeConfirmations {
		c, ok := a.selectedConfirmation()
		if !ok {
			a.message = "No confirmation selected"
			return nil
		}
		return a.decideConfirmation(action, c.ID)
	}
	t, ok := a.selectedTask()
	if !ok {
		a.message = "No task selected"
		return nil
	}
	return a.decideTask(action, t.ID)
}

func (a *App) decideTask(action string, id int64) tea.Cmd {
	store, ctx := a.deps.Tasks, a.ctx
	return func() tea.Msg {
		var err error
		if action == "approve" {
			_, err = store.Approve(ctx, id)
		} else {
			_, err = store.Reject(ctx, id)
		}
		if err != nil {
			return commandResultMsg{message: "Error: " + err.Error(), tasks: store.Tasks()}
		}
		return commandResultMsg{message: fmt.Sprintf("✓ Task %d %s", id, pastTense[action]), tasks: store.Tasks()}
	}
}

func (a *App) decideConfirmation(action, id string) tea.Cmd {
	p, ctx := a.deps.Confirmations, a.ctx
	if p == nil {
		a.message = "Confirmations are not available"
		return nil
	}
	return func() tea.Msg {
		var err error
		if action == "approve" {
			err = p.Approve(ctx, id)
		} else {
			err = p.Reject(ctx, id)
		}
		if err != nil {
			return commandResultMsg{message: "Error: " + err.Error(), pending: p.Pending()}
		}
		return commandResultMsg{message: fmt.Sprintf("✓ Confirmation %s %s", id, pastTense[action]), pending: p.Pending()}
	}
}

// executeCommand runs a typed command. View-local commands apply
// immediately; backend commands run as a tea.Cmd.
func (a *App) executeCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}
	cmd := parts[0]
	args := parts[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(input, cmd))

	switch cmd {
	case "q", "quit", "exit":
		return tea.Quit

	case "find":
		a.search = rest
		a.selectedIdx = 0
		if rest == "" {
			a.message = "Search cleared"
		} else {
			a.message = fmt.Sprintf("%d tasks match %q", len(a.visibleTasks()), rest)
		}
		return nil

	case "view":
		if len(args) != 1 {
			a.message = "Usage: view all|detected|approved|rejected"
			return nil
		}
		v, err := tasks.ParseView(args[0])
		if err != nil {
			a.message = "Error: " + err.Error()
			return nil
		}
		for i, candidate := range tasks.Views {
			if candidate == v {
				a.viewIdx = i
			}
		}
		a.selectedIdx = 0
		a.mode = modeTasks
		return nil

	case "refresh":
		return a.refreshAll()

	case "whoami":
		if a.deps.Username == "" {
			a.message = "Not signed in. Run 'cortexdesk login' to authenticate."
		} else {
			a.message = "Signed in as " + a.deps.Username
		}
		return nil

	case "approve", "reject":
		if len(args) == 0 {
			return a.decideSelected(cmd)
		}
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			return a.decideTask(cmd, id)
		}
		return a.decideConfirmation(cmd, args[0])

	case "add":
		if rest == "" {
			a.message = "Usage: add <title>"
			return nil
		}
		store, ctx := a.deps.Tasks, a.ctx
		return func() tea.Msg {
			t, err := store.Create(ctx, models.NewTask{Title: rest})
			if err != nil {
				return commandResultMsg{message: "Error: " + err.Error()}
			}
			return commandResultMsg{message: fmt.Sprintf("✓ Created task %d", t.ID), tasks: store.Tasks()}
		}

	case "ingest":
		if len(args) == 0 {
			a.message = "Usage: ingest <path>..."
			return nil
		}
		return a.ingestFiles(args)

	case "text":
		if rest == "" {
			a.message = "Usage: text <content>"
			return nil
		}
		coord, ctx, cred := a.deps.Ingest, a.ctx, a.deps.Credential
		if coord == nil {
			a.message = "Ingestion is not available"
			return nil
		}
		return func() tea.Msg {
			res, err := coord.IngestText(ctx, rest, "manual", cred)
			if err != nil {
				return errMsg{err}
			}
			return commandResultMsg{message: fmt.Sprintf("✓ Indexed %d chunks, %d tasks detected", res.ChunksIndexed, len(res.DetectedTasks))}
		}

	case "ask":
		if rest == "" {
			a.message = "Usage: ask <question>"
			return nil
		}
		asker, ctx, cred := a.deps.Research, a.ctx, a.deps.Credential
		if asker == nil {
			a.message = "Research is not available"
			return nil
		}
		a.message = "Thinking..."
		return func() tea.Msg {
			ans, err := asker.Ask(ctx, rest, 5, cred)
			if err != nil {
				return errMsg{err}
			}
			return answerMsg{ans}
		}

	default:
		a.message = fmt.Sprintf("Unknown: %s (try: approve, reject, add, ingest, ask, find)", cmd)
		return nil
	}
}

func (a *App) ingestFiles(paths []string) tea.Cmd {
	coord, store, ctx, cred := a.deps.Ingest, a.deps.Tasks, a.ctx, a.deps.Credential
	if coord == nil {
		a.message = "Ingestion is not available"
		return nil
	}
	files, err := ingest.OpenFiles(paths)
	if err != nil {
		a.message = "Error: " + err.Error()
		return nil
	}
	a.message = fmt.Sprintf("Uploading %d files...", len(files))

	return func() tea.Msg {
		out, err := coord.Ingest(ctx, files, cred)
		if out == nil {
			return errMsg{err}
		}
		msg := fmt.Sprintf("✓ %d/%d files ingested, %d tasks detected",
			len(out.Results)-out.Failed(), len(out.Results), len(out.DetectedTasks))
		for _, r := range out.Results {
			if r.Failed() {
				msg = fmt.Sprintf("%s; %s: %s", msg, r.Filename, r.Error)
			}
		}
		if out.Failed() > 0 {
			msg = "Error: " + strings.TrimPrefix(msg, "✓ ")
		}
		result := commandResultMsg{message: msg}
		if store != nil {
			if loaded, lerr := store.Load(ctx, ""); lerr == nil {
				result.tasks = loaded
			}
		}
		return result
	}
}
