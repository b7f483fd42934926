package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/daygrid/daygrid/internal/model"
)

const schedulerColumns = `
	s.id, s.user_id, s.title, s.description, s.category, s.is_public,
	s.usage_count, s.like_count, s.share_count, s.created_at, s.updated_at`

func (s *pgStore) CreateScheduler(userID int, title string, description, category *string, isPublic bool) (model.Scheduler, error) {
	var sc model.Scheduler
	const q = `
	INSERT INTO schedulers (user_id, title, description, category, is_public, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, now(), now())
	RETURNING id, user_id, title, description, category, is_public,
	          usage_count, like_count, share_count, created_at, updated_at;`
	if err := s.db.Get(&sc, q, userID, title, description, category, isPublic); err != nil {
		log.Error().Err(err).Msg("CreateScheduler failed")
		return model.Scheduler{}, err
	}
	return sc, nil
}

func (s *pgStore) GetScheduler(id int) (*model.Scheduler, error) {
	var sc model.Scheduler
	const q = `
	SELECT ` + schedulerColumns + `, u.username AS author_name
	  FROM schedulers s
	  JOIN users u ON u.id = s.user_id
	 WHERE s.id = $1;`
	if err := s.db.Get(&sc, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Int("scheduler_id", id).Msg("GetScheduler failed")
		return nil, err
	}
	return &sc, nil
}

func (s *pgStore) UpdateScheduler(id int, title string, description, category *string, isPublic bool) (model.Scheduler, error) {
	var sc model.Scheduler
	const q = `
	UPDATE schedulers
	   SET title = $2, description = $3, category = $4, is_public = $5, updated_at = now()
	 WHERE id = $1
	RETURNING id, user_id, title, description, category, is_public,
	          usage_count, like_count, share_count, created_at, updated_at;`
	if err := s.db.Get(&sc, q, id, title, description, category, isPublic); err != nil {
		log.Error().Err(err).Int("scheduler_id", id).Msg("UpdateScheduler failed")
		return model.Scheduler{}, err
	}
	return sc, nil
}

func (s *pgStore) DeleteScheduler(id int) error {
	_, err := s.db.Exec(`DELETE FROM schedulers WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("scheduler_id", id).Msg("DeleteScheduler failed")
	}
	return err
}

func (s *pgStore) ListSchedulersByUser(userID int) ([]model.Scheduler, error) {
	var out []model.Scheduler
	const q = `
	SELECT ` + schedulerColumns + `, u.username AS author_name
	  FROM schedulers s
	  JOIN users u ON u.id = s.user_id
	 WHERE s.user_id = $1
	 ORDER BY s.created_at DESC;`
	if err := s.db.Select(&out, q, userID); err != nil {
		log.Error().Err(err).Msg("ListSchedulersByUser failed")
		return nil, err
	}
	return out, nil
}

// public schedulers, newest-popular first, optional category filter.
func (s *pgStore) BrowseSchedulers(category *string, limit, offset int) ([]model.Scheduler, error) {
	var out []model.Scheduler
	const q = `
	SELECT ` + schedulerColumns + `, u.username AS author_name
	  FROM schedulers s
	  JOIN users u ON u.id = s.user_id
	 WHERE s.is_public = true
	   AND ($1::text IS NULL OR s.category = $1)
	 ORDER BY s.usage_count DESC, s.created_at DESC
	 LIMIT $2 OFFSET $3;`
	if err := s.db.Select(&out, q, category, limit, offset); err != nil {
		log.Error().Err(err).Msg("BrowseSchedulers failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) PopularSchedulers(limit int) ([]model.Scheduler, error) {
	var out []model.Scheduler
	const q = `
	SELECT ` + schedulerColumns + `, u.username AS author_name
	  FROM schedulers s
	  JOIN users u ON u.id = s.user_id
	 WHERE s.is_public = true
	 ORDER BY s.usage_count DESC, s.like_count DESC, s.share_count DESC
	 LIMIT $1;`
	if err := s.db.Select(&out, q, limit); err != nil {
		log.Error().Err(err).Msg("PopularSchedulers failed")
		return nil, err
	}
	return out, nil
}

// public schedulers ranked by interactions recorded since the cutoff.
func (s *pgStore) TrendingSchedulers(since time.Time, limit int) ([]model.Scheduler, error) {
	var out []model.Scheduler
	const q = `
	SELECT ` + schedulerColumns + `, u.username AS author_name
	  FROM schedulers s
	  JOIN users u ON u.id = s.user_id
	  JOIN user_interactions ui ON ui.scheduler_id = s.id AND ui.created_at >= $1
	 WHERE s.is_public = true
	 GROUP BY s.id, u.username
	 ORDER BY COUNT(ui.id) DESC, s.like_count DESC
	 LIMIT $2;`
	if err := s.db.Select(&out, q, since, limit); err != nil {
		log.Error().Err(err).Msg("TrendingSchedulers failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) CategoryCounts() ([]model.CategoryCount, error) {
	var out []model.CategoryCount
	const q = `
	SELECT category, COUNT(*) AS count
	  FROM schedulers
	 WHERE is_public = true AND category IS NOT NULL
	 GROUP BY category
	 ORDER BY count DESC;`
	if err := s.db.Select(&out, q); err != nil {
		log.Error().Err(err).Msg("CategoryCounts failed")
		return nil, err
	}
	return out, nil
}

// records a unique (user, scheduler, type) interaction and bumps the
// denormalized counter when the row is new. Reports whether it was new.
func (s *pgStore) RecordInteraction(userID, schedulerID int, kind string) (bool, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
	INSERT INTO user_interactions (user_id, scheduler_id, interaction_type)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, scheduler_id, interaction_type) DO NOTHING;`,
		userID, schedulerID, kind)
	if err != nil {
		log.Error().Err(err).Msg("RecordInteraction failed")
		return false, err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return false, tx.Commit()
	}

	if err := bumpCounter(tx.Exec, schedulerID, kind, +1); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (s *pgStore) RemoveInteraction(userID, schedulerID int, kind string) (bool, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
	DELETE FROM user_interactions
	 WHERE user_id = $1 AND scheduler_id = $2 AND interaction_type = $3;`,
		userID, schedulerID, kind)
	if err != nil {
		log.Error().Err(err).Msg("RemoveInteraction failed")
		return false, err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return false, tx.Commit()
	}

	if err := bumpCounter(tx.Exec, schedulerID, kind, -1); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

type execFunc func(query string, args ...interface{}) (sql.Result, error)

func bumpCounter(exec execFunc, schedulerID int, kind string, delta int) error {
	var column string
	switch kind {
	case model.InteractionLike:
		column = "like_count"
	case model.InteractionUse:
		column = "usage_count"
	case model.InteractionShare:
		column = "share_count"
	default:
		return errors.New("unknown interaction type: " + kind)
	}
	_, err := exec(`
	UPDATE schedulers
	   SET `+column+` = GREATEST(`+column+` + $2, 0), updated_at = now()
	 WHERE id = $1;`, schedulerID, delta)
	if err != nil {
		log.Error().Err(err).Int("scheduler_id", schedulerID).Str("counter", column).Msg("counter update failed")
	}
	return err
}

func (s *pgStore) AdminStats() (*model.AdminStats, error) {
	var st model.AdminStats
	const q = `
	SELECT
	  (SELECT COUNT(*) FROM users)              AS users,
	  (SELECT COUNT(*) FROM schedulers)         AS schedulers,
	  (SELECT COUNT(*) FROM scheduler_items)    AS items,
	  (SELECT COUNT(*) FROM user_interactions)  AS interactions;`
	if err := s.db.Get(&st, q); err != nil {
		log.Error().Err(err).Msg("AdminStats failed")
		return nil, err
	}
	return &st, nil
}
