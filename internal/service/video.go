// Package service contains the business rules of the catalog.
//
// Handlers parse forms and write responses; services validate input, call the
// repositories and return apperror values; repositories talk SQL. Services
// accept primitives (never *http.Request), so every rule here is testable with
// plain function calls and fake repositories.
//
// Authorization is not checked here. The router mounts the admin-only
// operations behind auth.RequireAdmin.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/video-catalog/internal/apperror"
	"github.com/sakif/video-catalog/internal/model"
	"github.com/sakif/video-catalog/internal/repository"
)

// Column limits shared by both SQL schemas.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 500
	MaxURLLength         = 500
)

// VideoService manages the shared video catalog.
type VideoService struct {
	repo   repository.VideoRepository
	logger *slog.Logger
}

func NewVideoService(repo repository.VideoRepository, logger *slog.Logger) *VideoService {
	return &VideoService{
		repo:   repo,
		logger: logger,
	}
}

// List returns every video, newest first.
func (s *VideoService) List(ctx context.Context) ([]model.Video, error) {
	videos, err := s.repo.ListAllOrderedByIDDesc(ctx)
	if err != nil {
		s.logger.Error("failed to list videos", slog.String("error", err.Error()))
		return nil, apperror.Persistence("listing videos", err)
	}
	return videos, nil
}

// Add validates and stores a new video.
//
// Title and URL are required; a value made only of whitespace counts as
// missing. An empty description is stored as NULL. Values are otherwise
// stored exactly as submitted.
func (s *VideoService) Add(ctx context.Context, title, description, url string) (*model.Video, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperror.MissingField("title")
	}
	if strings.TrimSpace(url) == "" {
		return nil, apperror.MissingField("url")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(url) > MaxURLLength {
		return nil, apperror.ValidationFailed("url",
			fmt.Sprintf("url must be %d characters or less", MaxURLLength))
	}
	if len(description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}

	video := &model.Video{Title: title, URL: url}
	if description != "" {
		video.Description = &description
	}

	if err := s.repo.Insert(ctx, video); err != nil {
		s.logger.Error("failed to add video",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Persistence("adding video", err)
	}

	s.logger.Info("video added",
		slog.Int64("id", video.ID),
		slog.String("title", video.Title),
	)
	return video, nil
}

// Delete removes a video. It returns apperror.ErrNotFound when no video has
// that id and apperror.ErrPersistence when storage failed; in both cases the
// catalog is unchanged.
func (s *VideoService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete video",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return apperror.Persistence("deleting video "+strconv.FormatInt(id, 10), err)
	}

	s.logger.Info("video deleted", slog.Int64("id", id))
	return nil
}
