package repositories

import (
	"github.com/Gobusters/ectologger"
	"github.com/zach-wendland/bna-rentals/pkg/database"
)

// Repository provides common database access for the concrete repositories.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new base repository
func NewRepository(db database.DB, logger ectologger.Logger) Repository {
	return Repository{db: db, logger: logger}
}

// DB returns the database instance
func (r *Repository) DB() database.DB {
	return r.db
}
