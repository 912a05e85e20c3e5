package prayer

import (
	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/child"
)

// Progress is a child's prayer completion over a window.
type Progress struct {
	ChildID   string `json:"child_id"`
	ChildName string `json:"child_name"`
	Total     int    `json:"total"`
	Done      int    `json:"done"`
	Percent   int    `json:"percent"`
}

// ComputeProgress counts, per child, the records of recordsByChild dated inside w.
// Totals only reflect a full window once that window has been reconciled;
// a child without records yields zero counts.
func ComputeProgress(children []child.Child, recordsByChild map[string][]Record, w calendar.Window) []Progress {
	progress := make([]Progress, 0, len(children))
	for _, c := range children {
		p := Progress{ChildID: c.ID, ChildName: c.Name}
		for _, rec := range recordsByChild[c.ID] {
			if !rec.InWindow(w) {
				continue
			}
			p.Total++
			if rec.Status {
				p.Done++
			}
		}
		p.Percent = core.Percent(p.Done, p.Total)
		progress = append(progress, p)
	}
	return progress
}
