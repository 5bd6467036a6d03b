package workflow

import (
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// SignOffChecklist closes the date: replaces an existing sign-off's signer,
// timestamp and comment, or inserts a fresh row. An insert losing a race to
// another instance surfaces as a duplicate key and is retried as an update.
func SignOffChecklist(tx *gorm.DB, logger *logrus.Logger, checkDate time.Time, comment string, now time.Time) error {

	userId, ok := utils.GetUserIdFromContext(tx.Statement.Context)
	if !ok {
		return errors.New("user id is required")
	}

	fields := map[string]interface{}{
		"validated_at": now,
		"validated_by": userId,
		"comment":      comment,
	}

	result := tx.Model(&models.ChecklistSignOff{}).Where("check_date = ?", checkDate).Updates(fields)
	if result.Error != nil {
		config.LogError(logger, "signOff.go", "SignOffChecklist", "UpdateSignOff", checkDate, result.Error)
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	signOff := models.ChecklistSignOff{
		CheckDate:   checkDate,
		ValidatedAt: now,
		ValidatedBy: userId,
		Comment:     comment,
	}
	err := tx.Create(&signOff).Error
	if err == nil {
		return nil
	}
	if !isDuplicateKeyErr(err) {
		config.LogError(logger, "signOff.go", "SignOffChecklist", "CreateSignOff", signOff, err)
		return err
	}

	// lost the insert race, the row exists now
	err = tx.Model(&models.ChecklistSignOff{}).Where("check_date = ?", checkDate).Updates(fields).Error
	if err != nil {
		config.LogError(logger, "signOff.go", "SignOffChecklist", "RetryUpdateSignOff", checkDate, err)
		return err
	}
	return nil
}

// UndoSignOff reopens the date by deleting its sign-off.
func UndoSignOff(tx *gorm.DB, logger *logrus.Logger, checkDate time.Time) error {

	result := tx.Where("check_date = ?", checkDate).Delete(&models.ChecklistSignOff{})
	if result.Error != nil {
		config.LogError(logger, "signOff.go", "UndoSignOff", "DeleteSignOff", checkDate, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no sign-off exists for %s: %w",
			checkDate.Format("2006-01-02"), utils.ErrorRecordNotFound)
	}
	return nil
}
