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

var _ repository.VideoRepository = (*VideoStore)(nil)

// VideoStore implements repository.VideoRepository.
type VideoStore struct {
	db *sqlx.DB
}

const videoColumns = `id, title, description, url, created_at`

func (s *VideoStore) FindByID(ctx context.Context, id int64) (*model.Video, error) {
	var v model.Video
	err := s.db.GetContext(ctx, &v,
		s.db.Rebind(`SELECT `+videoColumns+` FROM videos WHERE id = ?`),
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("video", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlstore: finding video %d: %w", id, err)
	}
	return &v, nil
}

func (s *VideoStore) ListAllOrderedByIDDesc(ctx context.Context) ([]model.Video, error) {
	videos := []model.Video{}
	err := s.db.SelectContext(ctx, &videos, `SELECT `+videoColumns+` FROM videos ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing videos: %w", err)
	}
	return videos, nil
}

func (s *VideoStore) Insert(ctx context.Context, v *model.Video) error {
	v.CreatedAt = time.Now().UTC().Truncate(time.Second)

	rows, err := s.db.NamedQueryContext(ctx,
		`INSERT INTO videos (title, description, url, created_at)
		 VALUES (:title, :description, :url, :created_at)
		 RETURNING id`,
		v,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting video: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("sqlstore: inserting video: %w", err)
		}
		return errors.New("sqlstore: inserting video: no id returned")
	}
	if err := rows.Scan(&v.ID); err != nil {
		return fmt.Errorf("sqlstore: reading new video id: %w", err)
	}
	return nil
}

// Delete removes a video inside a transaction. The row is looked up first so
// a missing id is reported as apperror.ErrNotFound rather than a silent no-op.
// Any failure rolls the transaction back.
func (s *VideoStore) Delete(ctx context.Context, id int64) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning delete of video %d: %w", id, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var found int64
	err = tx.GetContext(ctx, &found, tx.Rebind(`SELECT id FROM videos WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("video", strconv.FormatInt(id, 10))
		}
		return fmt.Errorf("sqlstore: locating video %d: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM videos WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting video %d: %w", id, err)
	}
	if n, rerr := res.RowsAffected(); rerr == nil && n == 0 {
		return apperror.NotFound("video", strconv.FormatInt(id, 10))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing delete of video %d: %w", id, err)
	}
	return nil
}
