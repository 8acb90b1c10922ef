package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/video-catalog/internal/apperror"
	"github.com/sakif/video-catalog/internal/model"
)

func newVideo(title, description, url string) *model.Video {
	v := &model.Video{Title: title, URL: url}
	if description != "" {
		v.Description = &description
	}
	return v
}

// createTestVideo inserts a video and fails the test if it errors.
func createTestVideo(t *testing.T, s *VideoStore, title string) *model.Video {
	t.Helper()
	v := newVideo(title, "", "https://www.youtube.com/embed/"+title)
	if err := s.Insert(context.Background(), v); err != nil {
		t.Fatalf("failed to create test video: %v", err)
	}
	return v
}

// =========================================================================
// INSERT / FIND TESTS
// =========================================================================

func TestVideoInsert_PersistsFields(t *testing.T) {
	s := newTestDB(t).Videos()
	ctx := context.Background()

	v := newVideo("Intro", "first lesson", "https://www.youtube.com/embed/xyz")
	if err := s.Insert(ctx, v); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if v.ID == 0 {
		t.Fatal("Insert() did not set ID")
	}

	got, err := s.FindByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Title != "Intro" || got.URL != "https://www.youtube.com/embed/xyz" {
		t.Errorf("FindByID() = %+v", got)
	}
	if got.DescriptionText() != "first lesson" {
		t.Errorf("Description = %q, want %q", got.DescriptionText(), "first lesson")
	}
}

func TestVideoInsert_NullDescription(t *testing.T) {
	db := newTestDB(t)
	s := db.Videos()
	ctx := context.Background()

	v := createTestVideo(t, s, "NoDesc")

	got, err := s.FindByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Description != nil {
		t.Errorf("Description = %q, want nil", *got.Description)
	}

	var nulls int
	if err := db.conn.Get(&nulls, `SELECT COUNT(*) FROM videos WHERE description IS NULL`); err != nil {
		t.Fatalf("counting NULL descriptions: %v", err)
	}
	if nulls != 1 {
		t.Errorf("NULL descriptions = %d, want 1", nulls)
	}
}

func TestVideoFindByID_NotFound(t *testing.T) {
	s := newTestDB(t).Videos()

	_, err := s.FindByID(context.Background(), 999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("FindByID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestVideoList_Empty(t *testing.T) {
	s := newTestDB(t).Videos()

	videos, err := s.ListAllOrderedByIDDesc(context.Background())
	if err != nil {
		t.Fatalf("ListAllOrderedByIDDesc() error = %v", err)
	}
	if videos == nil || len(videos) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", videos)
	}
}

func TestVideoList_NewestFirst(t *testing.T) {
	s := newTestDB(t).Videos()
	a := createTestVideo(t, s, "A")
	b := createTestVideo(t, s, "B")
	c := createTestVideo(t, s, "C")

	videos, err := s.ListAllOrderedByIDDesc(context.Background())
	if err != nil {
		t.Fatalf("ListAllOrderedByIDDesc() error = %v", err)
	}

	want := []int64{c.ID, b.ID, a.ID}
	if len(videos) != len(want) {
		t.Fatalf("got %d videos, want %d", len(videos), len(want))
	}
	for i := range want {
		if videos[i].ID != want[i] {
			t.Errorf("videos[%d].ID = %d, want %d", i, videos[i].ID, want[i])
		}
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestVideoDelete(t *testing.T) {
	s := newTestDB(t).Videos()
	ctx := context.Background()
	keep := createTestVideo(t, s, "Keep")
	gone := createTestVideo(t, s, "Gone")

	if err := s.Delete(ctx, gone.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := s.FindByID(ctx, gone.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("deleted video still found: err = %v", err)
	}
	if _, err := s.FindByID(ctx, keep.ID); err != nil {
		t.Errorf("unrelated video affected: %v", err)
	}
}

func TestVideoDelete_NotFoundLeavesTableUnchanged(t *testing.T) {
	s := newTestDB(t).Videos()
	ctx := context.Background()
	createTestVideo(t, s, "A")

	err := s.Delete(ctx, 12345)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() error = %v, want ErrNotFound", err)
	}

	videos, _ := s.ListAllOrderedByIDDesc(ctx)
	if len(videos) != 1 {
		t.Errorf("table changed: %d videos, want 1", len(videos))
	}
}

func TestVideoDelete_IDsAreNotReused(t *testing.T) {
	s := newTestDB(t).Videos()
	ctx := context.Background()
	first := createTestVideo(t, s, "First")
	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	second := createTestVideo(t, s, "Second")
	if second.ID <= first.ID {
		t.Errorf("new id %d reuses or precedes deleted id %d", second.ID, first.ID)
	}
}

func TestVideoDelete_StorageFailureIsNotNotFound(t *testing.T) {
	db := newTestDB(t)
	s := db.Videos()
	v := createTestVideo(t, s, "A")
	db.Close()

	err := s.Delete(context.Background(), v.ID)
	if err == nil {
		t.Fatal("Delete() on a closed database should fail")
	}
	if errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("storage failure reported as NotFound: %v", err)
	}
}

// =========================================================================
// POSTGRES
// =========================================================================

func TestPostgres_UserAndVideoLifecycle(t *testing.T) {
	db := newPostgresTestDB(t)
	ctx := context.Background()

	users := db.Users()
	createTestUser(t, users, "alice")
	if err := users.Insert(ctx, &model.User{Username: "alice", PasswordHash: "x"}); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate Insert() error = %v, want ErrConflict", err)
	}

	videos := db.Videos()
	v := createTestVideo(t, videos, "Intro")
	list, err := videos.ListAllOrderedByIDDesc(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListAllOrderedByIDDesc() = %v, %v", list, err)
	}
	if err := videos.Delete(ctx, v.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := videos.Delete(ctx, v.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
}
