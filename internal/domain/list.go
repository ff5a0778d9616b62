package domain

import (
	"time"

	"github.com/google/uuid"
)

// List is an ordered collection of items owned by a single user.
type List struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Title     string     `json:"title" db:"title"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// ListItem links an item into a list at a position. Position 0 is the top;
// inserting there shifts every existing membership down by one.
type ListItem struct {
	ListID   uuid.UUID `json:"list_id" db:"list_id"`
	ItemID   uuid.UUID `json:"item_id" db:"item_id"`
	Position int       `json:"position" db:"position"`
	AddedAt  time.Time `json:"added_at" db:"added_at"`
}
