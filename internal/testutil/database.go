// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/isgnet/devreg/internal/config"
	"github.com/isgnet/devreg/internal/database"
	"github.com/isgnet/devreg/model"
	"gorm.io/gorm"
)

// NewDB opens a migrated SQLite database in a temporary directory. The pool
// holds a single connection so concurrent transactions run one after another.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "devreg.db") + "?_busy_timeout=5000"
	db, err := database.Open(config.DatabaseConfig{
		Driver:       "sqlite",
		Dsn:          dsn,
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts an account usable as an audit actor.
func CreateUser(t testing.TB, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}
