package prayer

import (
	"sort"
	"strings"
	"time"

	"github.com/mutabaah/mutabaah/core/calendar"
)

// Type is one of the seven daily prayers tracked per child.
type Type string

const (
	Subuh   Type = "Subuh"
	Duha    Type = "Duha"
	Syuruq  Type = "Syuruq"
	Dzuhur  Type = "Dzuhur"
	Ashar   Type = "Ashar"
	Maghrib Type = "Maghrib"
	Isya    Type = "Isya"
)

// Types lists every prayer type in display order.
var Types = []Type{Subuh, Duha, Syuruq, Dzuhur, Ashar, Maghrib, Isya}

func (t Type) Valid() bool {
	for _, typ := range Types {
		if t == typ {
			return true
		}
	}
	return false
}

// ParseType does a case-insensitive match against Types.
func ParseType(s string) (Type, bool) {
	s = strings.TrimSpace(s)
	for _, typ := range Types {
		if strings.EqualFold(s, string(typ)) {
			return typ, true
		}
	}
	return "", false
}

// Record is the completion status of one prayer on one day for one child.
// (ChildID, Type, Day) is unique.
type Record struct {
	ID        string    `json:"id"`
	ChildID   string    `json:"child_id"`
	Type      Type      `json:"type"`
	Day       string    `json:"date"` // calendar.DayLayout
	Status    bool      `json:"status"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (r Record) Key() Key {
	return Key{Type: r.Type, Day: r.Day}
}

// SortRecords orders records by day, then like Types.
func SortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Day != recs[j].Day {
			return recs[i].Day < recs[j].Day
		}
		return typeRank(recs[i].Type) < typeRank(recs[j].Type)
	})
}

func typeRank(t Type) int {
	for i, typ := range Types {
		if t == typ {
			return i
		}
	}
	return len(Types)
}

// Key identifies a record within a child's ledger.
type Key struct {
	Type Type
	Day  string // calendar.DayLayout
}

// InWindow reports whether the record's day falls inside w, both ends included.
func (r Record) InWindow(w calendar.Window) bool {
	return r.Day >= w.StartDay() && r.Day <= w.EndDay()
}

// MarkRecord sets the status of a record identified by type and day, creating it if absent.
type MarkRecord struct {
	Type   string `json:"type" validate:"required,prayertype"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Status *bool  `json:"status" validate:"required"`
}

type UpdateStatus struct {
	Status *bool `json:"status" validate:"required"`
}

// DaySheet holds one day of a child's ledger, records ordered like Types.
type DaySheet struct {
	Date    string   `json:"date"`
	Records []Record `json:"records"`
}

// BuildSheet groups records by day for every day of w. Missing records are simply absent.
func BuildSheet(records []Record, w calendar.Window) []DaySheet {
	byKey := make(map[Key]Record, len(records))
	for _, rec := range records {
		byKey[rec.Key()] = rec
	}

	days := w.Days()
	sheet := make([]DaySheet, 0, len(days))
	for _, d := range days {
		day := d.Format(calendar.DayLayout)
		ds := DaySheet{Date: day, Records: make([]Record, 0, len(Types))}
		for _, typ := range Types {
			if rec, ok := byKey[Key{Type: typ, Day: day}]; ok {
				ds.Records = append(ds.Records, rec)
			}
		}
		sheet = append(sheet, ds)
	}
	return sheet
}
