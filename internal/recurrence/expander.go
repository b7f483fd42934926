package recurrence

import (
	"errors"
	"sort"
	"time"
)

// ErrUnboundedWindow indicates a caller asked for expansion without a finite
// window. Unbounded rules may only ever be observed through a bounded query.
var ErrUnboundedWindow = errors.New("recurrence: expansion window must be bounded")

// Item is the projection of a scheduler item that expansion needs: display
// fields plus the embedded rule.
type Item struct {
	ID          int
	Title       string
	Description string
	StartTime   string
	EndTime     string
	Color       string
	Priority    int
	OrderIndex  int
	Rule        Rule
}

// Override is a per-date exception to a generated series. Deleted suppresses
// the date entirely; the pointer fields, when set, replace the corresponding
// base field for that date only.
type Override struct {
	Deleted     bool
	Title       *string
	Description *string
	StartTime   *string
	EndTime     *string
	Color       *string
	Notes       *string
}

// OverrideKey addresses one override row: at most one exists per item/date.
type OverrideKey struct {
	ItemID int
	Date   string
}

// Occurrence is one materialized instance of an item on a concrete date,
// with overrides already applied. Derived on demand, never persisted.
type Occurrence struct {
	ItemID      int    `json:"item_id"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Color       string `json:"color"`
	Priority    int    `json:"priority"`
	OrderIndex  int    `json:"order_index"`
	Notes       string `json:"notes,omitempty"`
	Modified    bool   `json:"modified"`
}

// Expand materializes item's occurrences inside [from, to] inclusive,
// suppressing deleted dates and applying field-level modifications. It is a
// pure function of its inputs: no clock, no hidden state, safe to call
// concurrently.
func Expand(item Item, overrides map[string]Override, from, to time.Time) ([]Occurrence, error) {
	if from.IsZero() || to.IsZero() {
		return nil, ErrUnboundedWindow
	}
	from = Normalize(from)
	to = Normalize(to)

	start := from
	if anchor := Normalize(item.Rule.Anchor); start.Before(anchor) {
		start = anchor
	}
	stop := to
	if item.Rule.End != nil {
		if end := Normalize(*item.Rule.End); end.Before(stop) {
			stop = end
		}
	}

	out := make([]Occurrence, 0)
	for date := start; !date.After(stop); date = AddDays(date, 1) {
		if !item.Rule.OccursOn(date) {
			continue
		}
		key := FormatDate(date)
		ov, found := overrides[key]
		if found && ov.Deleted {
			continue
		}
		occ := Occurrence{
			ItemID:      item.ID,
			Date:        key,
			Title:       item.Title,
			Description: item.Description,
			StartTime:   item.StartTime,
			EndTime:     item.EndTime,
			Color:       item.Color,
			Priority:    item.Priority,
			OrderIndex:  item.OrderIndex,
		}
		if found {
			applyOverride(&occ, ov)
		}
		out = append(out, occ)
	}
	return out, nil
}

// ExpandMany merges the expansions of several items into one sequence with a
// deterministic display order: date, then start time, then order index, then
// item id.
func ExpandMany(items []Item, overrides map[OverrideKey]Override, from, to time.Time) ([]Occurrence, error) {
	merged := make([]Occurrence, 0)
	for _, item := range items {
		perDate := make(map[string]Override)
		for key, ov := range overrides {
			if key.ItemID == item.ID {
				perDate[key.Date] = ov
			}
		}
		occs, err := Expand(item, perDate, from, to)
		if err != nil {
			return nil, err
		}
		merged = append(merged, occs...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex < b.OrderIndex
		}
		return a.ItemID < b.ItemID
	})
	return merged, nil
}

func applyOverride(occ *Occurrence, ov Override) {
	if ov.Title != nil {
		occ.Title = *ov.Title
	}
	if ov.Description != nil {
		occ.Description = *ov.Description
	}
	if ov.StartTime != nil {
		occ.StartTime = *ov.StartTime
	}
	if ov.EndTime != nil {
		occ.EndTime = *ov.EndTime
	}
	if ov.Color != nil {
		occ.Color = *ov.Color
	}
	if ov.Notes != nil {
		occ.Notes = *ov.Notes
	}
	occ.Modified = ov.Title != nil || ov.Description != nil || ov.StartTime != nil ||
		ov.EndTime != nil || ov.Color != nil
}
