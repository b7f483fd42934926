package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/recurrence"
)

// date and time columns come back as formatted strings so every reader sees
// one canonical shape
const itemColumns = `
	id, scheduler_id, title, description,
	to_char(start_time, 'HH24:MI')           AS start_time,
	to_char(end_time, 'HH24:MI')             AS end_time,
	day_of_week,
	to_char(start_date, 'YYYY-MM-DD')        AS start_date,
	to_char(item_start_date, 'YYYY-MM-DD')   AS item_start_date,
	to_char(item_end_date, 'YYYY-MM-DD')     AS item_end_date,
	recurrence_type, recurrence_interval,
	to_char(next_occurrence, 'YYYY-MM-DD')   AS next_occurrence,
	color, priority, order_index, created_at`

// ReplaceSchedulerItems swaps the scheduler's full item set inside one
// transaction: concurrent expansion reads see either the old set or the new
// set, never a mix. Each incoming item is normalized into a canonical rule
// before insert; a malformed item rejects the whole batch. next_occurrence
// is recomputed from the rule relative to the supplied "today".
func (s *pgStore) ReplaceSchedulerItems(schedulerID int, items []ItemInput, today time.Time) ([]model.SchedulerItem, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM scheduler_items WHERE scheduler_id = $1;`, schedulerID); err != nil {
		log.Error().Err(err).Int("scheduler_id", schedulerID).Msg("ReplaceSchedulerItems delete failed")
		return nil, err
	}

	out := make([]model.SchedulerItem, 0, len(items))
	for i, in := range items {
		row, err := insertItem(tx, schedulerID, i, in, today)
		if err != nil {
			return nil, fmt.Errorf("item %d (%q): %w", i+1, in.Title, err)
		}
		out = append(out, row)
	}

	if _, err := tx.Exec(`UPDATE schedulers SET updated_at = now() WHERE id = $1;`, schedulerID); err != nil {
		return nil, err
	}
	return out, tx.Commit()
}

func insertItem(tx *sqlx.Tx, schedulerID, position int, in ItemInput, today time.Time) (model.SchedulerItem, error) {
	rule, err := recurrence.NormalizeRule(recurrence.RuleParams{
		Type:          in.Recurrence,
		Interval:      in.Interval,
		StartDate:     in.StartDate,
		TargetDate:    in.TargetDate,
		ItemStartDate: in.ItemStart,
		ItemEndDate:   in.ItemEnd,
		DayOfWeek:     in.DayOfWeek,
	})
	if err != nil {
		return model.SchedulerItem{}, err
	}

	var endDate *string
	if rule.End != nil {
		d := recurrence.FormatDate(*rule.End)
		endDate = &d
	}
	var nextOccur *string
	if next, ok := rule.NextOccurrence(today); ok {
		d := recurrence.FormatDate(next)
		nextOccur = &d
	}

	orderIndex := in.OrderIndex
	if orderIndex == 0 {
		orderIndex = position
	}
	priority := in.Priority
	if priority == 0 {
		priority = 1
	}
	color := in.Color
	if color == "" {
		color = "blue"
	}

	var row model.SchedulerItem
	const q = `
	INSERT INTO scheduler_items (
	  scheduler_id, title, description, start_time, end_time,
	  day_of_week, start_date, item_start_date, item_end_date,
	  recurrence_type, recurrence_interval, next_occurrence,
	  color, priority, order_index, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
	RETURNING ` + itemColumns + `;`
	err = tx.Get(&row, q,
		schedulerID, in.Title, in.Description, in.StartTime, in.EndTime,
		rule.DayOfWeek, recurrence.FormatDate(rule.Anchor), recurrence.FormatDate(rule.Anchor), endDate,
		rule.Kind.String(), rule.Interval, nextOccur,
		color, priority, orderIndex,
	)
	if err != nil {
		log.Error().Err(err).Int("scheduler_id", schedulerID).Msg("insert scheduler item failed")
		return model.SchedulerItem{}, err
	}
	return row, nil
}

func (s *pgStore) ListSchedulerItems(schedulerID int) ([]model.SchedulerItem, error) {
	var out []model.SchedulerItem
	const q = `
	SELECT ` + itemColumns + `
	  FROM scheduler_items
	 WHERE scheduler_id = $1
	 ORDER BY day_of_week, start_time, order_index;`
	if err := s.db.Select(&out, q, schedulerID); err != nil {
		log.Error().Err(err).Int("scheduler_id", schedulerID).Msg("ListSchedulerItems failed")
		return nil, err
	}
	return out, nil
}

// fetches the item along with the owning scheduler's user id for
// ownership checks on the occurrence mutation path.
func (s *pgStore) GetItemWithOwner(itemID int) (*model.SchedulerItem, int, error) {
	var row struct {
		model.SchedulerItem
		OwnerID int `db:"owner_id"`
	}
	const q = `
	SELECT
	  si.id, si.scheduler_id, si.title, si.description,
	  to_char(si.start_time, 'HH24:MI')         AS start_time,
	  to_char(si.end_time, 'HH24:MI')           AS end_time,
	  si.day_of_week,
	  to_char(si.start_date, 'YYYY-MM-DD')      AS start_date,
	  to_char(si.item_start_date, 'YYYY-MM-DD') AS item_start_date,
	  to_char(si.item_end_date, 'YYYY-MM-DD')   AS item_end_date,
	  si.recurrence_type, si.recurrence_interval,
	  to_char(si.next_occurrence, 'YYYY-MM-DD') AS next_occurrence,
	  si.color, si.priority, si.order_index, si.created_at,
	  s.user_id AS owner_id
	  FROM scheduler_items si
	  JOIN schedulers s ON s.id = si.scheduler_id
	 WHERE si.id = $1;`
	if err := s.db.Get(&row, q, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, sql.ErrNoRows
		}
		log.Error().Err(err).Int("item_id", itemID).Msg("GetItemWithOwner failed")
		return nil, 0, err
	}
	item := row.SchedulerItem
	return &item, row.OwnerID, nil
}
