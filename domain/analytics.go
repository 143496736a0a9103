package domain

import "strings"

// Summary holds grouped counts over an actor's scoped tasks. Labels with zero
// matching tasks are absent from the maps; callers treat absence as zero.
type Summary struct {
	ByCategory   map[string]int `json:"byCategory"`
	ByPriority   map[string]int `json:"byPriority"`
	DueDateCount int            `json:"dueDateCount"`
}

// SummaryKey strips the separator characters from an enum label so it is a
// safe identifier in a flat result map ("to-do" -> "todo").
func SummaryKey(label string) string {
	return strings.ReplaceAll(label, "-", "")
}

// Aggregate computes category and priority group-counts plus the number of
// tasks carrying a due date. An empty input yields empty maps and a zero
// count, never an error.
func Aggregate(tasks []Task) Summary {
	s := Summary{
		ByCategory: map[string]int{},
		ByPriority: map[string]int{},
	}
	for _, t := range tasks {
		s.ByCategory[SummaryKey(t.Category)]++
		s.ByPriority[SummaryKey(t.Priority)]++
		if t.DueDate != nil {
			s.DueDateCount++
		}
	}
	return s
}
