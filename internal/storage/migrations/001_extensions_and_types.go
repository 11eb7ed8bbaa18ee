package migrations

import "gorm.io/gorm"

// migration001Up enables pgcrypto for gen_random_uuid() in SQL-side inserts
func migration001Up(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// migration001Down leaves the extension installed; other schemas may use it
func migration001Down(db *gorm.DB) error {
	return nil
}
