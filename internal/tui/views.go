package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/fentz26/cortexdesk/internal/tasks"
)

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.renderHeader() + "\n")
	if a.connectivity == models.ConnectivityDown {
		b.WriteString(bannerStyle.Width(a.width).Render("⚠ Backend unreachable. Showing last known data, retrying in the background.") + "\n")
	}
	b.WriteString(strings.Repeat("─", a.width) + "\n")

	contentHeight := a.height - 9
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case modeTasks:
		b.WriteString(a.renderViewTabs() + "\n")
		b.WriteString(a.renderTaskList(contentHeight - 1))
	case modeConfirmations:
		b.WriteString(a.renderConfirmations(contentHeight))
	case modeDetail:
		b.WriteString(a.renderTaskDetail())
	case modeAnswer:
		b.WriteString(a.viewport.View())
	}

	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))
	if a.suggestions.IsVisible() {
		b.WriteString("\n")
		b.WriteString(a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	var status string
	switch a.mode {
	case modeTasks:
		status = fmt.Sprintf(" Tasks: %d | %s", len(a.visibleTasks()),
			hints(keys.Up, keys.Submit, keys.Approve, keys.Reject, keys.SwitchTab, keys.CycleView, keys.Refresh, keys.Quit))
	case modeConfirmations:
		status = fmt.Sprintf(" Pending: %d | %s", len(a.pending),
			hints(keys.Up, keys.Approve, keys.Reject, keys.SwitchTab, keys.Refresh, keys.Quit))
	case modeAnswer:
		status = " " + hints(keys.Up, keys.Back, keys.Quit)
	default:
		status = " " + hints(keys.Back, keys.Approve, keys.Reject, keys.Quit)
	}
	b.WriteString(statusBarStyle.Width(a.width).Render(status))

	return b.String()
}

func (a *App) renderHeader() string {
	var conn string
	switch a.connectivity {
	case models.ConnectivityUp:
		conn = onlineStyle.Render("● BACKEND")
	case models.ConnectivityDown:
		conn = offlineStyle.Render("○ BACKEND")
	default:
		conn = labelStyle.Render("◌ BACKEND")
	}

	user := labelStyle.Render("○ not signed in")
	if a.deps.Username != "" {
		user = lipgloss.NewStyle().Foreground(successColor).Render("● " + a.deps.Username)
	}

	header := titleStyle.Render("CortexDesk")
	header += "  " + conn
	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf("[%d pending]", len(a.pending)))
	header += "  " + user
	return header
}

func (a *App) renderViewTabs() string {
	counts := tasks.Counts(a.tasks)
	var tabs []string
	for i, v := range tasks.Views {
		n := len(a.tasks)
		if v != tasks.ViewAll {
			n = counts[models.TaskStatus(v)]
		}
		label := fmt.Sprintf("%s (%d)", strings.ToUpper(string(v)), n)
		if i == a.viewIdx {
			label = "[" + label + "]"
		}
		tabs = append(tabs, label)
	}
	line := " View: " + strings.Join(tabs, " ")
	if a.search != "" {
		line += fmt.Sprintf("  find: %q", a.search)
	}
	return labelStyle.Render(line)
}

func (a *App) renderTaskList(height int) string {
	if a.loading && len(a.tasks) == 0 {
		return "\n  Loading tasks...\n"
	}
	visible := a.visibleTasks()
	if len(visible) == 0 {
		return "\n  No tasks. Ingest documents or type: add <title>\n"
	}

	lines := make([]string, 0, len(visible))
	for i, t := range visible {
		text := fmt.Sprintf("#%-4d %s", t.ID, t.Title)
		if t.DueDate != nil && *t.DueDate != "" {
			text += labelStyle.Render("  due " + *t.DueDate)
		}
		if i == a.selectedIdx {
			lines = append(lines, selectedStyle.Render(fmt.Sprintf("▶ %s  %s", statusIcon(t.Status), text)))
		} else {
			lines = append(lines, itemStyle.Render(fmt.Sprintf("  %s  %s", formatStatus(t.Status), text)))
		}
	}
	return strings.Join(window(lines, a.selectedIdx, height), "\n")
}

func (a *App) renderConfirmations(height int) string {
	if len(a.pending) == 0 {
		return "\n  No confirmations awaiting review.\n"
	}

	var lines []string
	for i, c := range a.pending {
		meta := fmt.Sprintf("%s · %s priority · deadline %s",
			c.Data.AssigneeOrDefault(), c.Data.PriorityOrDefault(), c.Data.DeadlineOrDefault())
		if created, ok := c.Created(); ok {
			meta += " · " + humanize.Time(created)
		}
		head := fmt.Sprintf("%-8s %3.0f%%  %s", c.ID, c.Confidence*100, c.Data.Text())
		if i == a.confIdx {
			lines = append(lines, selectedStyle.Render("▶ "+head))
		} else {
			lines = append(lines, itemStyle.Render("  "+head))
		}
		lines = append(lines, "      "+labelStyle.Render(meta))
	}
	return strings.Join(window(lines, a.confIdx*2, height), "\n")
}

func (a *App) renderTaskDetail() string {
	t := a.current
	if t == nil {
		return "\n  No task selected.\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\n  %s\n", lipgloss.NewStyle().Bold(true).Render(t.Title)))
	b.WriteString(fmt.Sprintf("  %s %d\n", labelStyle.Render("ID:"), t.ID))
	b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render("Status:"), formatStatus(t.Status)))
	b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render("Description:"), valueOr(t.Description, "No description")))
	b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render("Priority:"), valueOr(t.Priority, "Normal")))
	b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render("Due:"), valueOr(t.DueDate, "Not set")))
	b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render("Scheduled:"), valueOr(t.ScheduledFor, "Not set")))
	if !t.Status.IsTerminal() {
		b.WriteString("\n  " + helpStyle.Render("Ctrl+A to approve, Ctrl+X to reject") + "\n")
	}
	return b.String()
}

func renderAnswer(ans *models.Answer, width int) string {
	if ans == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(RenderMarkdown(ans.Answer, width))
	if len(ans.Citations) > 0 {
		b.WriteString("\n  Sources:\n")
		for _, c := range ans.Citations {
			b.WriteString(fmt.Sprintf("    • %s (%.2f)\n", c.Source, c.Score))
		}
	}
	return b.String()
}

func hints(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+":"+h.Desc)
	}
	return strings.Join(parts, " | ")
}

func formatStatus(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusDetected:
		return lipgloss.NewStyle().Foreground(warningColor).Render("○ DETECTED")
	case models.TaskStatusApproved:
		return lipgloss.NewStyle().Foreground(successColor).Render("● APPROVED")
	case models.TaskStatusRejected:
		return lipgloss.NewStyle().Foreground(errorColor).Render("✗ REJECTED")
	case models.TaskStatusPending:
		return lipgloss.NewStyle().Foreground(secondaryColor).Render("◐ PENDING")
	default:
		return strings.ToUpper(string(status))
	}
}

func statusIcon(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusDetected:
		return "○"
	case models.TaskStatusApproved:
		return "●"
	case models.TaskStatusRejected:
		return "✗"
	case models.TaskStatusPending:
		return "◐"
	default:
		return "?"
	}
}

func valueOr(p *string, def string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return def
	}
	return *p
}

// window keeps the line at focus visible within height lines.
func window(lines []string, focus, height int) []string {
	if len(lines) <= height {
		return lines
	}
	start := focus - height/2
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
		start = max(0, end-height)
	}
	return lines[start:end]
}
