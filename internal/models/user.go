package models

import "time"

// User is the local identity record provisioned on first login. The email is
// unique and immutable; the record is never updated or deleted afterwards.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
