package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/onboard-api/internal/repository"
)

type availabilityRepository struct {
	db *sqlx.DB
}

func NewAvailabilityRepository(db *sqlx.DB) repository.AvailabilityRepository {
	return &availabilityRepository{db: db}
}
