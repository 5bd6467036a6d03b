package models

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "checklist.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	if err := db.AutoMigrate(&ChecklistEntry{}, &ValidationRecord{}, &ChecklistSignOff{}, &User{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	config.SetDB(db)
	t.Cleanup(func() {
		config.SetDB(nil)
		_ = sqlDB.Close()
	})
	return db
}

func testDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := utils.ParseCheckDate(value, "UTC")
	if err != nil {
		t.Fatalf("parse date %s: %v", value, err)
	}
	return d
}

func actorTx(db *gorm.DB, userId int) *gorm.DB {
	return db.WithContext(utils.SetUserIdInContext(context.Background(), userId))
}

func seedUser(t *testing.T, db *gorm.DB, username string, name string) int {
	t.Helper()
	user := User{
		Username: username,
		Name:     name,
		Password: "not-checked-here",
		IsActive: utils.NewTrue(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user.ID
}
