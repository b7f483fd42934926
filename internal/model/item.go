package model

import (
	"time"

	"github.com/daygrid/daygrid/internal/recurrence"
)

// SchedulerItem is one activity row of a scheduler. Date and time columns
// are selected as formatted strings (to_char in the queries) so legacy-shape
// normalization stays in one place.
type SchedulerItem struct {
	ID            int       `db:"id" json:"id"`
	SchedulerID   int       `db:"scheduler_id" json:"scheduler_id"`
	Title         string    `db:"title" json:"title"`
	Description   *string   `db:"description" json:"description"`
	StartTime     *string   `db:"start_time" json:"start_time"`
	EndTime       *string   `db:"end_time" json:"end_time"`
	DayOfWeek     *int      `db:"day_of_week" json:"day_of_week"`
	StartDate     *string   `db:"start_date" json:"start_date"`
	ItemStartDate *string   `db:"item_start_date" json:"item_start_date"`
	ItemEndDate   *string   `db:"item_end_date" json:"item_end_date"`
	Recurrence    string    `db:"recurrence_type" json:"recurrence_type"`
	Interval      int       `db:"recurrence_interval" json:"recurrence_interval"`
	NextOccur     *string   `db:"next_occurrence" json:"next_occurrence"`
	Color         string    `db:"color" json:"color"`
	Priority      int       `db:"priority" json:"priority"`
	OrderIndex    int       `db:"order_index" json:"order_index"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Rule normalizes the item's persisted recurrence fields, legacy shapes
// included, into the canonical rule.
func (it *SchedulerItem) Rule() (recurrence.Rule, error) {
	return recurrence.NormalizeRule(recurrence.RuleParams{
		Type:          it.Recurrence,
		Interval:      it.Interval,
		StartDate:     it.StartDate,
		ItemStartDate: it.ItemStartDate,
		ItemEndDate:   it.ItemEndDate,
		DayOfWeek:     it.DayOfWeek,
	})
}

// ExpansionItem projects the row into the shape the expander consumes.
func (it *SchedulerItem) ExpansionItem() (recurrence.Item, error) {
	rule, err := it.Rule()
	if err != nil {
		return recurrence.Item{}, err
	}
	return recurrence.Item{
		ID:          it.ID,
		Title:       it.Title,
		Description: strOrEmpty(it.Description),
		StartTime:   strOrEmpty(it.StartTime),
		EndTime:     strOrEmpty(it.EndTime),
		Color:       it.Color,
		Priority:    it.Priority,
		OrderIndex:  it.OrderIndex,
		Rule:        rule,
	}, nil
}

// ItemOccurrence is an exception row for one (item, date) pair; at most one
// exists per pair.
type ItemOccurrence struct {
	ID              int       `db:"id" json:"id"`
	SchedulerItemID int       `db:"scheduler_item_id" json:"scheduler_item_id"`
	OccurrenceDate  string    `db:"occurrence_date" json:"occurrence_date"`
	IsDeleted       bool      `db:"is_deleted" json:"is_deleted"`
	IsModified      bool      `db:"is_modified" json:"is_modified"`
	ModTitle        *string   `db:"modified_title" json:"modified_title"`
	ModDescription  *string   `db:"modified_description" json:"modified_description"`
	ModStartTime    *string   `db:"modified_start_time" json:"modified_start_time"`
	ModEndTime      *string   `db:"modified_end_time" json:"modified_end_time"`
	ModColor        *string   `db:"modified_color" json:"modified_color"`
	Notes           *string   `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Override translates the row into expander terms. Deletion wins over any
// modification fields the row may also carry.
func (o *ItemOccurrence) Override() recurrence.Override {
	return recurrence.Override{
		Deleted:     o.IsDeleted,
		Title:       o.ModTitle,
		Description: o.ModDescription,
		StartTime:   o.ModStartTime,
		EndTime:     o.ModEndTime,
		Color:       o.ModColor,
		Notes:       o.Notes,
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
