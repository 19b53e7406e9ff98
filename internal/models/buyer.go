package models

import (
	"time"

	"github.com/google/uuid"
)

// Buyer is the owner of a basket and of the orders placed from it
type Buyer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
