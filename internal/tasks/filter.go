package tasks

import (
	"fmt"

	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/sahilm/fuzzy"
)

// Filter returns the tasks matching pred. The input is not modified.
func Filter(tasks []models.Task, pred func(models.Task) bool) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

// ByStatus matches tasks with the given status.
func ByStatus(status models.TaskStatus) func(models.Task) bool {
	return func(t models.Task) bool { return t.Status == status }
}

// View is a named task listing.
type View string

const (
	ViewAll      View = "all"
	ViewDetected View = "detected"
	ViewApproved View = "approved"
	ViewRejected View = "rejected"
)

// Views lists the views in display order.
var Views = []View{ViewAll, ViewDetected, ViewApproved, ViewRejected}

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q, must be one of: all, detected, approved, rejected", s)
}

// Apply returns the tasks visible in v.
func (v View) Apply(tasks []models.Task) []models.Task {
	if v == ViewAll || v == "" {
		return Filter(tasks, func(models.Task) bool { return true })
	}
	return Filter(tasks, ByStatus(models.TaskStatus(v)))
}

// Counts tallies tasks per status.
func Counts(tasks []models.Task) map[models.TaskStatus]int {
	counts := make(map[models.TaskStatus]int)
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts
}

type titles []models.Task

func (t titles) String(i int) string { return t[i].Title }
func (t titles) Len() int            { return len(t) }

// Search ranks tasks by fuzzy title match, best first. An empty pattern
// returns every task in its original order.
func Search(tasks []models.Task, pattern string) []models.Task {
	if pattern == "" {
		return Filter(tasks, func(models.Task) bool { return true })
	}
	matches := fuzzy.FindFrom(pattern, titles(tasks))
	out := make([]models.Task, len(matches))
	for i, m := range matches {
		out[i] = tasks[m.Index]
	}
	return out
}
