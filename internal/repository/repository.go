// Package repository holds one gorm-backed repository per entity. Every method
// takes an optional transaction; a nil tx runs against the repository's own handle.
package repository

import (
	"strings"

	"gorm.io/gorm"
)

// Page is an offset/limit window over an ordered result set.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	return db
}

func use(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike lowercases s and escapes LIKE wildcards using backslash.
func escapeLike(s string) string {
	return likeEscaper.Replace(strings.ToLower(s))
}
