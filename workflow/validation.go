package workflow

import (
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Validation mutations run inside one caller-owned transaction per request:
// entry flips and their audit records commit or roll back together. Identity
// comes from the transaction context; the caller supplies the request's
// single timestamp.

// validateRows flips one batch of matched entries with a single UPDATE and
// appends one audit record per distinct hostname, all sharing the request
// timestamp. Rows must arrive in (hostname, command, id) order so the first
// row per hostname supplies the application/owner/criticality snapshot.
// Returns the distinct hostname count.
func validateRows(tx *gorm.DB, logger *logrus.Logger, rows []*models.ChecklistEntry, comment string, isBulk bool, now time.Time) (int, error) {

	if len(rows) == 0 {
		return 0, nil
	}

	userId, ok := utils.GetUserIdFromContext(tx.Statement.Context)
	if !ok {
		return 0, errors.New("user id is required")
	}

	ids := make([]int, 0, len(rows))
	records := make([]*models.ValidationRecord, 0)
	for _, row := range rows {
		ids = append(ids, row.ID)
		if len(records) == 0 || records[len(records)-1].Hostname != row.Hostname {
			records = append(records, &models.ValidationRecord{
				Hostname:        row.Hostname,
				ApplicationName: row.ApplicationName,
				AssetOwner:      row.AssetOwner,
				Criticality:     row.Criticality,
				CheckDate:       row.CheckDate,
				ValidatedAt:     now,
				Comment:         comment,
				IsBulk:          isBulk,
			})
		}
	}

	err := tx.Model(&models.ChecklistEntry{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"is_validated": true,
			"updated_by":   userId,
			"updated_at":   now,
		}).Error
	if err != nil {
		config.LogError(logger, "validation.go", "validateRows", "UpdateEntries", ids, err)
		return 0, err
	}

	if err := models.SaveValidationRecords(tx, records); err != nil {
		config.LogError(logger, "validation.go", "validateRows", "SaveValidationRecords", len(records), err)
		return 0, err
	}
	return len(records), nil
}

// ValidateHost acknowledges one host for the date. Validating a host that
// already carries a live record is a conflict.
func ValidateHost(tx *gorm.DB, logger *logrus.Logger, hostname string, checkDate time.Time, comment string, now time.Time) error {

	var rows []*models.ChecklistEntry
	err := tx.
		Where("hostname = ? AND check_date = ?", hostname, checkDate).
		Order("command ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		config.LogError(logger, "validation.go", "ValidateHost", "FindEntries", hostname, err)
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no checklist entries for %s on %s: %w",
			hostname, checkDate.Format("2006-01-02"), utils.ErrorRecordNotFound)
	}

	_, err = models.GetValidationRecord(tx, hostname, checkDate)
	if err == nil {
		return fmt.Errorf("%s is already validated for %s: %w",
			hostname, checkDate.Format("2006-01-02"), utils.ErrorConflict)
	}
	if !utils.IsNotFound(err) {
		config.LogError(logger, "validation.go", "ValidateHost", "GetValidationRecord", hostname, err)
		return err
	}

	_, err = validateRows(tx, logger, rows, comment, false, now)
	return err
}

// UndoValidateHost removes the host's validation for the date: deletes the
// audit record and resets the entry rows.
func UndoValidateHost(tx *gorm.DB, logger *logrus.Logger, hostname string, checkDate time.Time, now time.Time) error {

	record, err := models.GetValidationRecord(tx, hostname, checkDate)
	if err != nil {
		if utils.IsNotFound(err) {
			return fmt.Errorf("%s has no validation for %s: %w",
				hostname, checkDate.Format("2006-01-02"), utils.ErrorRecordNotFound)
		}
		config.LogError(logger, "validation.go", "UndoValidateHost", "GetValidationRecord", hostname, err)
		return err
	}

	userId, ok := utils.GetUserIdFromContext(tx.Statement.Context)
	if !ok {
		return errors.New("user id is required")
	}

	if err := tx.Delete(&models.ValidationRecord{}, record.ID).Error; err != nil {
		config.LogError(logger, "validation.go", "UndoValidateHost", "DeleteRecord", record.ID, err)
		return err
	}

	err = tx.Model(&models.ChecklistEntry{}).
		Where("hostname = ? AND check_date = ?", hostname, checkDate).
		Updates(map[string]interface{}{
			"is_validated": false,
			"updated_by":   userId,
			"updated_at":   now,
		}).Error
	if err != nil {
		config.LogError(logger, "validation.go", "UndoValidateHost", "ResetEntries", hostname, err)
		return err
	}
	return nil
}

// ValidateAllFailing acknowledges every not-yet-validated anomalous host of
// one application (optionally narrowed by owner) in one shot. A row is
// anomalous unless its status is reachable and its stored diff is no_diff.
// Returns the hostname count.
func ValidateAllFailing(tx *gorm.DB, logger *logrus.Logger, checkDate time.Time, application string, owner *string, comment string, now time.Time) (int, error) {

	if application == "" {
		return 0, fmt.Errorf("application is required: %w", utils.ErrorBadRequest)
	}

	dbCtx := tx.
		Where("check_date = ? AND application_name = ? AND is_validated = ?", checkDate, application, false).
		Where("(status <> ? OR COALESCE(diff_status, '') <> ?)", models.HostStatusReachable, models.DiffStatusNoDiff)
	if owner != nil && len(*owner) > 0 {
		dbCtx = dbCtx.Where("asset_owner = ?", *owner)
	}

	var rows []*models.ChecklistEntry
	err := dbCtx.Order("hostname ASC, command ASC, id ASC").Find(&rows).Error
	if err != nil {
		config.LogError(logger, "validation.go", "ValidateAllFailing", "FindEntries", application, err)
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no failing entries for %s on %s: %w",
			application, checkDate.Format("2006-01-02"), utils.ErrorRecordNotFound)
	}

	return validateRows(tx, logger, rows, comment, true, now)
}

// ValidateSelected acknowledges the listed hostnames for the date. Hostnames
// without not-yet-validated rows are silently skipped; nothing matching at
// all is not-found. Returns the hostname count actually validated.
func ValidateSelected(tx *gorm.DB, logger *logrus.Logger, checkDate time.Time, hostnames []string, comment string, now time.Time) (int, error) {

	if len(hostnames) == 0 {
		return 0, fmt.Errorf("hostnames list is empty: %w", utils.ErrorBadRequest)
	}

	var rows []*models.ChecklistEntry
	err := tx.
		Where("check_date = ? AND hostname IN ? AND is_validated = ?", checkDate, hostnames, false).
		Order("hostname ASC, command ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		config.LogError(logger, "validation.go", "ValidateSelected", "FindEntries", hostnames, err)
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no checklist entries match the selected hostnames on %s: %w",
			checkDate.Format("2006-01-02"), utils.ErrorRecordNotFound)
	}

	return validateRows(tx, logger, rows, comment, true, now)
}

// ValidateGroups acknowledges the anomalous hosts of each listed
// (application, owner) group, one batched update per group. Groups with
// nothing anomalous are skipped. Returns the total hostname count across
// groups.
func ValidateGroups(tx *gorm.DB, logger *logrus.Logger, checkDate time.Time, groups []models.ChecklistGroupKey, comment string, now time.Time) (int, error) {

	if len(groups) == 0 {
		return 0, fmt.Errorf("groups list is empty: %w", utils.ErrorBadRequest)
	}

	total := 0
	for _, group := range groups {
		var rows []*models.ChecklistEntry
		err := tx.
			Where("check_date = ? AND application_name = ? AND asset_owner = ? AND is_validated = ?",
				checkDate, group.ApplicationName, group.AssetOwner, false).
			Where("(status <> ? OR COALESCE(diff_status, '') <> ?)", models.HostStatusReachable, models.DiffStatusNoDiff).
			Order("hostname ASC, command ASC, id ASC").
			Find(&rows).Error
		if err != nil {
			config.LogError(logger, "validation.go", "ValidateGroups", "FindEntries", group, err)
			return 0, err
		}

		count, err := validateRows(tx, logger, rows, comment, true, now)
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}
