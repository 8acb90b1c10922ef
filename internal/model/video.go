package model

import "time"

// Video is one entry of the shared catalog. URL holds an embeddable player URL
// (for example a YouTube /embed/ link). Description is optional and stored as
// NULL when empty.
type Video struct {
	ID          int64     `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description *string   `json:"description" db:"description"`
	URL         string    `json:"url"         db:"url"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}

// DescriptionText returns the description or "" when it is NULL.
func (v Video) DescriptionText() string {
	if v.Description == nil {
		return ""
	}
	return *v.Description
}
