package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sakif/video-catalog/internal/apperror"
	"github.com/sakif/video-catalog/internal/model"
	"github.com/sakif/video-catalog/internal/repository"
)

var _ repository.UserRepository = (*UserStore)(nil)

// UserStore implements repository.UserRepository.
type UserStore struct {
	db *sqlx.DB
}

const userColumns = `id, username, password_hash, created_at`

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`),
		username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlstore: finding user %q: %w", username, err)
	}
	return &u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`),
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlstore: finding user %d: %w", id, err)
	}
	return &u, nil
}

func (s *UserStore) ListAll(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing users: %w", err)
	}
	return users, nil
}

// Insert adds a user. A username that is already taken, including one that
// lost a race with a concurrent registration, yields apperror.DuplicateUsername.
func (s *UserStore) Insert(ctx context.Context, u *model.User) error {
	u.CreatedAt = time.Now().UTC().Truncate(time.Second)

	rows, err := s.db.NamedQueryContext(ctx,
		`INSERT INTO users (username, password_hash, created_at)
		 VALUES (:username, :password_hash, :created_at)
		 RETURNING id`,
		u,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateUsername()
		}
		return fmt.Errorf("sqlstore: inserting user %q: %w", u.Username, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			if isUniqueViolation(err) {
				return apperror.DuplicateUsername()
			}
			return fmt.Errorf("sqlstore: inserting user %q: %w", u.Username, err)
		}
		return fmt.Errorf("sqlstore: inserting user %q: no id returned", u.Username)
	}
	if err := rows.Scan(&u.ID); err != nil {
		return fmt.Errorf("sqlstore: reading new user id: %w", err)
	}
	return nil
}
