package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/sakif/video-catalog/internal/apperror"
	"github.com/sakif/video-catalog/internal/model"
)

// Catalog is the video service as seen by the handlers.
type Catalog interface {
	List(ctx context.Context) ([]model.Video, error)
	Add(ctx context.Context, title, description, url string) (*model.Video, error)
	Delete(ctx context.Context, id int64) error
}

// Accounts is the auth service as seen by the handlers.
type Accounts interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

// deletionFailedMessage is the body of a 500 from /delete_video.
const deletionFailedMessage = "An error occurred during deletion."

// statusFor maps a domain error to an HTTP status code.
//
// The service layer returns apperror sentinels and never HTTP codes; this is
// the one place that translates between the two. errors.Is walks the whole
// chain, so wrapped errors map the same as bare ones.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// userMessage returns text that is safe to show on a page. Only AppError
// messages qualify; anything else may carry SQL or file paths.
func userMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && !errors.Is(err, apperror.ErrPersistence) {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}
