package schedule

import (
	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/child"
)

// ActivityProgress is a child's schedule completion.
type ActivityProgress struct {
	ChildID   string `json:"child_id"`
	ChildName string `json:"child_name"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Percent   int    `json:"percent"`
}

// ComputeActivityProgress groups schedules by ChildID and counts those done.
// Schedules of children not listed are ignored.
func ComputeActivityProgress(children []child.Child, schedules []Schedule) []ActivityProgress {
	type counts struct{ total, completed int }
	byChild := make(map[string]*counts, len(children))
	for _, c := range children {
		byChild[c.ID] = new(counts)
	}
	for _, s := range schedules {
		cnt, ok := byChild[s.ChildID]
		if !ok {
			continue
		}
		cnt.total++
		if s.Status == StatusDone {
			cnt.completed++
		}
	}

	progress := make([]ActivityProgress, 0, len(children))
	for _, c := range children {
		cnt := byChild[c.ID]
		progress = append(progress, ActivityProgress{
			ChildID:   c.ID,
			ChildName: c.Name,
			Total:     cnt.total,
			Completed: cnt.completed,
			Percent:   core.Percent(cnt.completed, cnt.total),
		})
	}
	return progress
}
