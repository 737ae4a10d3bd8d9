// Package users implements the user resource lifecycle: validated creation,
// reads, and existence-checked deletion over a conditional-write key-value
// store.
package users

import (
	"time"
)

// MaxIDLength is the upper bound on user IDs. IDs are used directly as store
// keys, so the character set is restricted as well (see CreateParams).
const MaxIDLength = 50

// User is the managed resource. ID is immutable after creation and unique
// across the store. CreatedAt is set exactly once; UpdatedAt moves on every
// mutation, so CreatedAt <= UpdatedAt always holds.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateParams carries the caller-supplied fields for Create. The id charset
// excludes path delimiters so an id can never be interpreted as a key path by
// a hierarchical store. The max tag must stay in step with MaxIDLength. Names
// are kept under 100 characters by convention, not enforced.
type CreateParams struct {
	ID   string `json:"id" validate:"required,max=50,user_id"`
	Name string `json:"name" validate:"required"`
}
