package repositories

import (
	"gorm.io/gorm"
)

// BaseRepository provides common database functionality
type BaseRepository struct {
	db *gorm.DB
}

func NewBaseRepository(db *gorm.DB) BaseRepository {
	return BaseRepository{db: db}
}

// DB returns the underlying database connection
func (r *BaseRepository) DB() *gorm.DB {
	return r.db
}

// withDB rebinds the repository to another connection. Used by the WithTx
// constructors so a whole call chain can run inside one transaction.
func (r *BaseRepository) withDB(db *gorm.DB) BaseRepository {
	return BaseRepository{db: db}
}
