package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
)

// ChecklistEntry is one collected health-check command result for a host.
//
// Grain: (hostname, check_date, command). Rows arrive pre-populated from the
// upstream collector; this service never creates them on the request path and
// only flips is_validated (validation workflow) and diff_status (diff
// calculator).
//
// diff_status is the stored per-(hostname, command) verdict resolved once by
// the calculator; NULL or pending means unresolved. The per-host success flag
// shown on summaries is a separate live computation against the previous day
// and is never read from this column.
type ChecklistEntry struct {
	ID              int         `gorm:"primary_key" json:"id"`
	Hostname        string      `gorm:"size:255;not null;index:idx_entry_identity,priority:1" json:"hostname"`
	IP              string      `gorm:"size:45" json:"ip"`
	Location        string      `gorm:"size:255" json:"location"`
	ApplicationName string      `gorm:"size:255;index" json:"application_name"`
	AssetOwner      string      `gorm:"size:255" json:"asset_owner"`
	Criticality     string      `gorm:"size:50" json:"criticality"`
	Command         string      `gorm:"size:255;not null;index:idx_entry_identity,priority:3" json:"command"`
	Output          string      `gorm:"type:text" json:"output"`
	Status          HostStatus  `gorm:"size:20;not null;default:other" json:"status"`
	DiffStatus      *DiffStatus `gorm:"size:20;index" json:"diff_status"`
	IsValidated     bool        `gorm:"default:false" json:"is_validated"`
	CheckDate       time.Time   `gorm:"not null;index;index:idx_entry_identity,priority:2" json:"check_date"`
	UpdatedBy       int         `gorm:"default:0" json:"updated_by"`
	CreatedAt       time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetEntriesByDate returns every entry for the date, optionally narrowed by
// application and owner, in (hostname, command, id) order.
func GetEntriesByDate(ctx context.Context, checkDate time.Time, application *string, owner *string) ([]*ChecklistEntry, error) {

	db := config.GetDB()
	var results []*ChecklistEntry

	dbCtx := db.WithContext(ctx).Where("check_date = ?", checkDate)
	if application != nil && len(*application) > 0 {
		dbCtx = dbCtx.Where("application_name = ?", *application)
	}
	if owner != nil && len(*owner) > 0 {
		dbCtx = dbCtx.Where("asset_owner = ?", *owner)
	}
	err := dbCtx.Order("hostname ASC, command ASC, id ASC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetEntriesForHostnames returns the date's entries for the given hostnames,
// in (hostname, command, id) order. Used to fetch baseline rows by the current
// day's hostname set so hosts that moved group day-over-day still find their
// previous rows.
func GetEntriesForHostnames(ctx context.Context, checkDate time.Time, hostnames []string) ([]*ChecklistEntry, error) {

	if len(hostnames) == 0 {
		return nil, nil
	}

	db := config.GetDB()
	var results []*ChecklistEntry

	err := db.WithContext(ctx).
		Where("check_date = ? AND hostname IN ?", checkDate, hostnames).
		Order("hostname ASC, command ASC, id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetHostEntries returns one host's entries for the date in (command, id) order.
func GetHostEntries(ctx context.Context, hostname string, checkDate time.Time) ([]*ChecklistEntry, error) {

	db := config.GetDB()
	var results []*ChecklistEntry

	err := db.WithContext(ctx).
		Where("hostname = ? AND check_date = ?", hostname, checkDate).
		Order("command ASC, id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CreateEntries inserts collector rows in one batch. Seed tooling only; the
// request path never writes entries.
func CreateEntries(ctx context.Context, entries []*ChecklistEntry) error {

	if len(entries) == 0 {
		return nil
	}

	db := config.GetDB()
	return db.WithContext(ctx).Create(&entries).Error
}
