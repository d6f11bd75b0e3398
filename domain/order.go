package domain

import "sort"

// SortTasks applies the default task ordering: today's focus first, then
// incomplete before completed, newest first.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.TodaysFocus != b.TodaysFocus {
			return a.TodaysFocus
		}
		if a.Completed != b.Completed {
			return !a.Completed
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// SortFocusTasks orders the today's-focus view: incomplete first, most
// urgent first, newest first.
func SortFocusTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if aw, bw := a.Urgency.Weight(), b.Urgency.Weight(); aw != bw {
			return aw > bw
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
