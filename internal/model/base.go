package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all stored models
type Base struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// JSONMap represents a generic JSON object
type JSONMap map[string]interface{}
