package workflow

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/models"
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
	if err := db.AutoMigrate(&models.ChecklistEntry{}, &models.ValidationRecord{}, &models.ChecklistSignOff{}, &models.User{}); err != nil {
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

// actorTx is a session whose context carries the acting user, the way the
// session middleware prepares request contexts.
func actorTx(db *gorm.DB, userId int) *gorm.DB {
	return db.WithContext(utils.SetUserIdInContext(context.Background(), userId))
}

func entry(hostname string, checkDate time.Time, command string, output string) *models.ChecklistEntry {
	return &models.ChecklistEntry{
		Hostname:        hostname,
		IP:              "10.20.1.11",
		Location:        "YGN-DC1",
		ApplicationName: "Billing",
		AssetOwner:      "Platform Team",
		Criticality:     "high",
		Command:         command,
		Output:          output,
		Status:          models.HostStatusReachable,
		CheckDate:       checkDate,
	}
}

func seedEntries(t *testing.T, db *gorm.DB, entries ...*models.ChecklistEntry) {
	t.Helper()
	if err := db.Create(&entries).Error; err != nil {
		t.Fatalf("seed entries: %v", err)
	}
}

func reloadEntries(t *testing.T, db *gorm.DB, hostname string, checkDate time.Time) []*models.ChecklistEntry {
	t.Helper()
	var rows []*models.ChecklistEntry
	err := db.Where("hostname = ? AND check_date = ?", hostname, checkDate).
		Order("command ASC, id ASC").Find(&rows).Error
	if err != nil {
		t.Fatalf("reload %s: %v", hostname, err)
	}
	return rows
}
