// Package repository declares the storage contracts used by the services.
//
// Implementations translate storage-specific failures into apperror values:
// a missing row is apperror.ErrNotFound and a taken username is
// apperror.DuplicateUsername. Anything else is returned wrapped with context
// and treated by callers as a persistence failure.
package repository

import (
	"context"

	"github.com/sakif/video-catalog/internal/model"
)

type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	// ListAll returns every user ordered by id ascending.
	ListAll(ctx context.Context) ([]model.User, error)
	// Insert stores u and sets its ID and CreatedAt.
	Insert(ctx context.Context, u *model.User) error
}

type VideoRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Video, error)
	// ListAllOrderedByIDDesc returns every video, newest first.
	ListAllOrderedByIDDesc(ctx context.Context) ([]model.Video, error)
	// Insert stores v and sets its ID and CreatedAt.
	Insert(ctx context.Context, v *model.Video) error
	// Delete removes the video atomically. The table is unchanged on error.
	Delete(ctx context.Context, id int64) error
}
