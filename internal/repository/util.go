package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row lock strengths. SQLite ignores locking clauses and relies on its single writer.
const (
	LockNone   = ""
	LockUpdate = "UPDATE"
	LockShare  = "SHARE"
)

func withLock(tx *gorm.DB, strength string) *gorm.DB {
	if strength == LockNone {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: strength})
}
