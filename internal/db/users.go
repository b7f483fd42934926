package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/daygrid/daygrid/internal/model"
)

const userColumns = `id, username, email, hashed_password, role, created_at, updated_at`

// inserts a new user, returns the new user ID.
func (s *pgStore) CreateUser(username, email, hashedPassword string) (int, error) {
	const q = `
	INSERT INTO users (username, email, hashed_password, role, created_at, updated_at)
	VALUES ($1, $2, $3, 'user', now(), now())
	RETURNING id;
	`
	var newID int
	if err := s.db.QueryRow(q, username, email, hashedPassword).Scan(&newID); err != nil {
		log.Error().Err(err).Msg("failed to create user")
		return 0, err
	}
	return newID, nil
}

// fetches user by email. Returns nil, sql.ErrNoRows if not found.
func (s *pgStore) GetUserByEmail(email string) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `SELECT `+userColumns+` FROM users WHERE email = $1;`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}
	return &u, nil
}

// fetches a user by ID. Returns nil, sql.ErrNoRows if not found.
func (s *pgStore) GetUserByID(id int) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `SELECT `+userColumns+` FROM users WHERE id = $1;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Int("user_id", id).Msg("failed to get user by id")
		return nil, err
	}
	return &u, nil
}

// updates a user's username and email, and bumps updated_at.
func (s *pgStore) UpdateUserProfile(id int, username, email string) error {
	const q = `
	UPDATE users
	SET username = $2,
	    email = $3,
	    updated_at = now()
	WHERE id = $1;
	`
	res, err := s.db.Exec(q, id, username, email)
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("failed to update user profile")
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.New("no such user")
	}
	return nil
}

func (s *pgStore) ListUsers() ([]model.User, error) {
	var out []model.User
	err := s.db.Select(&out, `SELECT `+userColumns+` FROM users ORDER BY id;`)
	if err != nil {
		log.Error().Err(err).Msg("ListUsers failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) SetUserRole(id int, role string) error {
	res, err := s.db.Exec(`UPDATE users SET role = $2, updated_at = now() WHERE id = $1;`, id, role)
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("SetUserRole failed")
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// cascades to the user's schedulers, items and interactions.
func (s *pgStore) DeleteUser(id int) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("DeleteUser failed")
	}
	return err
}
