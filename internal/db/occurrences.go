package db

import (
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/daygrid/daygrid/internal/model"
)

const occurrenceColumns = `
	id, scheduler_item_id,
	to_char(occurrence_date, 'YYYY-MM-DD')        AS occurrence_date,
	is_deleted, is_modified,
	modified_title, modified_description,
	to_char(modified_start_time, 'HH24:MI')       AS modified_start_time,
	to_char(modified_end_time, 'HH24:MI')         AS modified_end_time,
	modified_color, notes, created_at, updated_at`

// MarkOccurrenceDeleted suppresses one occurrence of a recurring item.
// Idempotent: repeating it leaves the row deleted.
func (s *pgStore) MarkOccurrenceDeleted(itemID int, date string) error {
	const q = `
	INSERT INTO scheduler_item_occurrences (scheduler_item_id, occurrence_date, is_deleted)
	VALUES ($1, $2, true)
	ON CONFLICT (scheduler_item_id, occurrence_date)
	DO UPDATE SET is_deleted = true, updated_at = now();`
	if _, err := s.db.Exec(q, itemID, date); err != nil {
		log.Error().Err(err).Int("item_id", itemID).Str("date", date).Msg("MarkOccurrenceDeleted failed")
		return err
	}
	return nil
}

// RestoreOccurrence clears the deleted flag. A missing row is a no-op, not
// an error: there is nothing to restore.
func (s *pgStore) RestoreOccurrence(itemID int, date string) error {
	const q = `
	UPDATE scheduler_item_occurrences
	   SET is_deleted = false, updated_at = now()
	 WHERE scheduler_item_id = $1 AND occurrence_date = $2;`
	if _, err := s.db.Exec(q, itemID, date); err != nil {
		log.Error().Err(err).Int("item_id", itemID).Str("date", date).Msg("RestoreOccurrence failed")
		return err
	}
	return nil
}

// ModifyOccurrence upserts the supplied field subset for one occurrence.
// It never touches is_deleted; concurrent writers to the same key race on
// last-write-wins.
func (s *pgStore) ModifyOccurrence(itemID int, date string, fields OccurrenceFields) error {
	const q = `
	INSERT INTO scheduler_item_occurrences (
	  scheduler_item_id, occurrence_date, is_modified,
	  modified_title, modified_description, modified_start_time,
	  modified_end_time, modified_color, notes
	)
	VALUES ($1, $2, true, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (scheduler_item_id, occurrence_date)
	DO UPDATE SET
	  is_modified          = true,
	  modified_title       = COALESCE(EXCLUDED.modified_title, scheduler_item_occurrences.modified_title),
	  modified_description = COALESCE(EXCLUDED.modified_description, scheduler_item_occurrences.modified_description),
	  modified_start_time  = COALESCE(EXCLUDED.modified_start_time, scheduler_item_occurrences.modified_start_time),
	  modified_end_time    = COALESCE(EXCLUDED.modified_end_time, scheduler_item_occurrences.modified_end_time),
	  modified_color       = COALESCE(EXCLUDED.modified_color, scheduler_item_occurrences.modified_color),
	  notes                = COALESCE(EXCLUDED.notes, scheduler_item_occurrences.notes),
	  updated_at           = now();`
	_, err := s.db.Exec(q, itemID, date,
		fields.Title, fields.Description, fields.StartTime,
		fields.EndTime, fields.Color, fields.Notes)
	if err != nil {
		log.Error().Err(err).Int("item_id", itemID).Str("date", date).Msg("ModifyOccurrence failed")
	}
	return err
}

// ListOccurrenceOverrides returns override rows for the given items whose
// date falls in [from, to]. Deleted rows are excluded unless requested; the
// expander still needs them to suppress dates, so the read path asks for
// them explicitly.
func (s *pgStore) ListOccurrenceOverrides(itemIDs []int, from, to string, includeDeleted bool) ([]model.ItemOccurrence, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var out []model.ItemOccurrence
	const q = `
	SELECT ` + occurrenceColumns + `
	  FROM scheduler_item_occurrences
	 WHERE scheduler_item_id = ANY($1)
	   AND occurrence_date >= $2
	   AND occurrence_date <= $3
	   AND ($4 OR is_deleted = false)
	 ORDER BY occurrence_date;`
	if err := s.db.Select(&out, q, pq.Array(itemIDs), from, to, includeDeleted); err != nil {
		log.Error().Err(err).Ints("item_ids", itemIDs).Msg("ListOccurrenceOverrides failed")
		return nil, err
	}
	return out, nil
}
