package model

import "github.com/google/uuid"

// APIKey is an issued credential. Nothing issues, validates or revokes keys
// over HTTP yet; the table and repository exist so the schema matches what
// deployed databases already carry.
//
// UserID is a soft reference to User.ID. No code path checks it.
type APIKey struct {
	Key    uuid.UUID `json:"api_key" db:"api_key"`
	UserID *int64    `json:"user_id" db:"user_id"`
	Title  string    `json:"title"   db:"title"`
}
