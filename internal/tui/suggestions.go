package tui

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

const (
	commandSigil = "/"
	taskSigil    = "@"

	maxSuggestionRows = 5
)

// SuggestionItem is one completion candidate shown under the input.
type SuggestionItem struct {
	Text        string
	Description string
}

// candidates adapts a slice of items to fuzzy.Source.
type candidates []SuggestionItem

func (c candidates) String(i int) string { return c[i].Text }
func (c candidates) Len() int            { return len(c) }

var slashCommands = candidates{
	{"approve", "Approve the selected task or confirmation"},
	{"reject", "Reject the selected task or confirmation"},
	{"add", "Create a new task"},
	{"ingest", "Upload documents"},
	{"text", "Index a note"},
	{"ask", "Ask a question about your documents"},
	{"find", "Fuzzy-filter tasks by title"},
	{"view", "Show all, detected, approved or rejected tasks"},
	{"refresh", "Reload tasks, confirmations and health"},
	{"whoami", "Show current user"},
}

// Suggestions completes slash commands and "@" task references.
type Suggestions struct {
	sigil   string
	query   string
	pool    candidates
	matches candidates
	cursor  int
}

func NewSuggestions() *Suggestions {
	return &Suggestions{}
}

// Update re-evaluates the candidates for the current input line.
func (s *Suggestions) Update(input string) {
	switch {
	case strings.HasPrefix(input, commandSigil):
		s.sigil, s.pool = commandSigil, slashCommands
	case strings.HasPrefix(input, taskSigil):
		if s.sigil != taskSigil {
			s.pool = nil
		}
		s.sigil = taskSigil
	default:
		*s = Suggestions{}
		return
	}
	s.query = input[len(s.sigil):]
	s.rematch()
}

// SetTasks replaces the "@" candidates with the given task titles. It is a
// no-op unless a task reference is being typed.
func (s *Suggestions) SetTasks(titles []string) {
	if s.sigil != taskSigil {
		return
	}
	s.pool = make(candidates, 0, len(titles))
	for _, title := range titles {
		s.pool = append(s.pool, SuggestionItem{Text: "find " + title, Description: "Jump to this task"})
	}
	s.rematch()
}

func (s *Suggestions) rematch() {
	s.cursor = 0
	if s.query == "" {
		s.matches = s.pool
		return
	}
	found := fuzzy.FindFrom(s.query, s.pool)
	s.matches = make(candidates, len(found))
	for i, m := range found {
		s.matches[i] = s.pool[m.Index]
	}
}

func (s *Suggestions) Next() { s.move(1) }
func (s *Suggestions) Prev() { s.move(-1) }

func (s *Suggestions) move(step int) {
	n := len(s.matches)
	if n == 0 {
		return
	}
	s.cursor = (s.cursor + step + n) % n
}

// Selected returns the highlighted candidate, or nil when nothing is shown.
func (s *Suggestions) Selected() *SuggestionItem {
	if !s.IsVisible() {
		return nil
	}
	return &s.matches[s.cursor]
}

func (s *Suggestions) IsVisible() bool {
	return s.sigil != "" && len(s.matches) > 0
}

// Render draws the dropdown, capped at a few rows.
func (s *Suggestions) Render(width int) string {
	if !s.IsVisible() {
		return ""
	}

	title := "Commands"
	if s.sigil == taskSigil {
		title = "Tasks"
	}
	rows := []string{suggestTitleStyle.Render(title)}
	for i, item := range s.matches {
		if i == maxSuggestionRows {
			rows = append(rows, helpStyle.Render(fmt.Sprintf("  +%d more", len(s.matches)-i)))
			break
		}
		row := "  " + item.Text
		if i == s.cursor {
			row = selectedStyle.Render("▶ " + item.Text)
		}
		if item.Description != "" {
			row += " " + helpStyle.Render(item.Description)
		}
		rows = append(rows, row)
	}

	return suggestBoxStyle.Width(max(20, width-4)).Render(strings.Join(rows, "\n"))
}
