package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/sakif/video-catalog/internal/apperror"
	"github.com/sakif/video-catalog/internal/model"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. Each has an error
// field that, when set, makes every call fail, to simulate a broken database.

type fakeUserRepo struct {
	users  map[string]*model.User // keyed by username
	nextID int64
	err    error
	// insertErr is returned only by Insert (e.g. a lost registration race).
	insertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
}

func (f *fakeUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) Insert(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.users[u.Username]; ok {
		return apperror.DuplicateUsername()
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.Username] = &cp
	return nil
}

type fakeVideoRepo struct {
	videos []model.Video // ascending by id
	nextID int64
	err    error
}

func (f *fakeVideoRepo) FindByID(_ context.Context, id int64) (*model.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.videos {
		if v.ID == id {
			cp := v
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("video", strconv.FormatInt(id, 10))
}

func (f *fakeVideoRepo) ListAllOrderedByIDDesc(_ context.Context) ([]model.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Video, 0, len(f.videos))
	for i := len(f.videos) - 1; i >= 0; i-- {
		out = append(out, f.videos[i])
	}
	return out, nil
}

func (f *fakeVideoRepo) Insert(_ context.Context, v *model.Video) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	v.ID = f.nextID
	v.CreatedAt = time.Now()
	f.videos = append(f.videos, *v)
	return nil
}

func (f *fakeVideoRepo) Delete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	for i, v := range f.videos {
		if v.ID == id {
			f.videos = append(f.videos[:i], f.videos[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("video", strconv.FormatInt(id, 10))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
