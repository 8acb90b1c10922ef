// Package model defines the records stored by the application.
package model

import "time"

// User is a registered account.
//
// Username doubles as the session key and as the input to the admin policy, so
// it is unique at the storage layer. PasswordHash is a bcrypt hash and is never
// rendered or serialised.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
