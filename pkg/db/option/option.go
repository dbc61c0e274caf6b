// Package option provides composable query modifiers for the generic
// repository.
package option

import "gorm.io/gorm"

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type optionFunc func(db *gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// WithOrderDesc sorts the result set by field, newest first.
func WithOrderDesc(field string) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(field + " DESC")
	})
}

// WithLimit caps the number of returned rows. Non-positive values are
// ignored.
func WithLimit(limit int) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}
