// Package tui provides the interactive terminal dashboard for CortexDesk.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fentz26/cortexdesk/internal/confirmations"
	"github.com/fentz26/cortexdesk/internal/health"
	"github.com/fentz26/cortexdesk/internal/ingest"
	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/fentz26/cortexdesk/internal/tasks"
)

// Asker answers research questions.
type Asker interface {
	Ask(ctx context.Context, query string, contextLimit int, credential string) (*models.Answer, error)
}

// Deps are the services the dashboard drives. Confirmations, Health,
// Ingest and Research may be nil.
type Deps struct {
	Tasks         *tasks.Store
	Confirmations *confirmations.Poller
	Health        *health.Monitor
	Ingest        *ingest.Coordinator
	Research      Asker
	Credential    string
	Username      string
}

const (
	modeTasks         = "tasks"
	modeConfirmations = "confirmations"
	modeDetail        = "detail"
	modeAnswer        = "answer"
)

// App is the main TUI model.
type App struct {
	deps Deps
	ctx  context.Context

	tasks        []models.Task
	pending      []models.Confirmation
	connectivity models.Connectivity

	mode        string
	viewIdx     int
	search      string
	selectedIdx int
	confIdx     int
	current     *models.Task

	input       textinput.Model
	viewport    viewport.Model
	suggestions *Suggestions
	width       int
	height      int
	message     string
	loading     bool
}

// New creates the dashboard.
func New(deps Deps) *App {
	ti := textinput.New()
	ti.Placeholder = "Type: approve | reject | add <title> | ingest <path> | ask <question> | find <text>"
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 80

	return &App{
		deps:         deps,
		ctx:          context.Background(),
		tasks:        []models.Task{},
		pending:      []models.Confirmation{},
		connectivity: models.ConnectivityUnknown,
		mode:         modeTasks,
		input:        ti,
		viewport:     viewport.New(80, 20),
		suggestions:  NewSuggestions(),
		width:        80,
		height:       24,
	}
}

// Run starts the background loops and the program, and blocks until the
// user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx = ctx

	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))

	if a.deps.Confirmations != nil {
		a.deps.Confirmations.OnChange(func(items []models.Confirmation) {
			p.Send(confirmationsMsg{items})
		})
		a.deps.Confirmations.Start(ctx)
		defer a.deps.Confirmations.Stop()
	}
	if a.deps.Health != nil {
		a.deps.Health.OnChange(func(s models.Connectivity) {
			p.Send(connectivityMsg{s})
		})
		a.deps.Health.Start(ctx)
		defer a.deps.Health.Stop()
	}

	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.fetchTasks(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, keys.Back):
			if a.mode == modeDetail || a.mode == modeAnswer {
				a.mode = modeTasks
				a.current = nil
				return a, nil
			}
			a.input.SetValue("")

		case key.Matches(msg, keys.Up):
			switch {
			case a.suggestions.IsVisible():
				a.suggestions.Prev()
			case a.mode == modeTasks && a.selectedIdx > 0:
				a.selectedIdx--
			case a.mode == modeConfirmations && a.confIdx > 0:
				a.confIdx--
			case a.mode == modeAnswer:
				a.viewport.LineUp(1)
			}
			return a, nil

		case key.Matches(msg, keys.Down):
			switch {
			case a.suggestions.IsVisible():
				a.suggestions.Next()
			case a.mode == modeTasks && a.selectedIdx < len(a.visibleTasks())-1:
				a.selectedIdx++
			case a.mode == modeConfirmations && a.confIdx < len(a.pending)-1:
				a.confIdx++
			case a.mode == modeAnswer:
				a.viewport.LineDown(1)
			}
			return a, nil

		case key.Matches(msg, keys.SwitchTab):
			if a.suggestions.IsVisible() {
				a.acceptSuggestion()
				return a, nil
			}
			if a.mode == modeConfirmations {
				a.mode = modeTasks
			} else {
				a.mode = modeConfirmations
			}
			return a, nil

		case key.Matches(msg, keys.CycleView):
			a.viewIdx = (a.viewIdx + 1) % len(tasks.Views)
			a.selectedIdx = 0
			return a, nil

		case key.Matches(msg, keys.Approve):
			return a, a.decideSelected("approve")

		case key.Matches(msg, keys.Reject):
			return a, a.decideSelected("reject")

		case key.Matches(msg, keys.Refresh):
			return a, a.refreshAll()

		case key.Matches(msg, keys.Submit):
			if a.suggestions.IsVisible() {
				a.acceptSuggestion()
				return a, nil
			}
			input := strings.TrimSpace(a.input.Value())
			if input != "" {
				a.input.SetValue("")
				a.suggestions.Update("")
				return a, a.executeCommand(input)
			}
			if a.mode == modeTasks {
				if t, ok := a.selectedTask(); ok {
					a.current = &t
					a.mode = modeDetail
				}
			}
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 10

	case tasksLoadedMsg:
		a.loading = false
		a.tasks = msg.tasks
		a.clampSelection()

	case confirmationsMsg:
		a.pending = msg.items
		if a.confIdx >= len(a.pending) {
			a.confIdx = max(0, len(a.pending)-1)
		}

	case connectivityMsg:
		a.connectivity = msg.state

	case answerMsg:
		a.mode = modeAnswer
		a.viewport.SetContent(renderAnswer(msg.answer, a.width))
		a.viewport.GotoTop()
		a.message = ""

	case commandResultMsg:
		a.message = msg.message
		if msg.tasks != nil {
			a.tasks = msg.tasks
			a.clampSelection()
		}
		if msg.pending != nil {
			a.pending = msg.pending
		}

	case errMsg:
		a.loading = false
		a.message = "Error: " + msg.err.Error()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	a.suggestions.Update(a.input.Value())
	if strings.HasPrefix(a.input.Value(), "@") {
		titles := make([]string, 0, len(a.tasks))
		for _, t := range a.tasks {
			titles = append(titles, t.Title)
		}
		a.suggestions.SetTasks(titles)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) acceptSuggestion() {
	if selected := a.suggestions.Selected(); selected != nil {
		a.input.SetValue(selected.Text + " ")
		a.input.CursorEnd()
		a.suggestions.Update("")
	}
}

// visibleTasks applies the current view and search to the collection.
func (a *App) visibleTasks() []models.Task {
	return tasks.Search(tasks.Views[a.viewIdx].Apply(a.tasks), a.search)
}

func (a *App) selectedTask() (models.Task, bool) {
	visible := a.visibleTasks()
	if a.selectedIdx < 0 || a.selectedIdx >= len(visible) {
		return models.Task{}, false
	}
	return visible[a.selectedIdx], true
}

func (a *App) selectedConfirmation() (models.Confirmation, bool) {
	if a.confIdx < 0 || a.confIdx >= len(a.pending) {
		return models.Confirmation{}, false
	}
	return a.pending[a.confIdx], true
}

func (a *App) clampSelection() {
	if n := len(a.visibleTasks()); a.selectedIdx >= n {
		a.selectedIdx = max(0, n-1)
	}
}

type tasksLoadedMsg struct {
	tasks []models.Task
}

type confirmationsMsg struct {
	items []models.Confirmation
}

type connectivityMsg struct {
	state models.Connectivity
}

type answerMsg struct {
	answer *models.Answer
}

// commandResultMsg reports a finished command. tasks and pending are set
// when the command reloaded them.
type commandResultMsg struct {
	message string
	tasks   []models.Task
	pending []models.Confirmation
}

type errMsg struct {
	err error
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
