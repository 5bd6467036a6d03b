package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"gorm.io/gorm"
)

// ValidationRecord is the audit trail for operator acknowledgements.
// Append-only: rows are inserted by the validation workflow and removed only
// by undo. At most one live record per (hostname, check_date); the workflow
// enforces this by treating a second validation of the same host as a
// conflict. Application, owner and criticality are snapshots of the host's
// rows at validation time.
type ValidationRecord struct {
	ID              int       `gorm:"primary_key" json:"id"`
	Hostname        string    `gorm:"size:255;not null;index:idx_validation_host_date,priority:1" json:"hostname"`
	ApplicationName string    `gorm:"size:255" json:"application_name"`
	AssetOwner      string    `gorm:"size:255" json:"asset_owner"`
	Criticality     string    `gorm:"size:50" json:"criticality"`
	CheckDate       time.Time `gorm:"not null;index;index:idx_validation_host_date,priority:2" json:"check_date"`
	ValidatedAt     time.Time `gorm:"not null" json:"validated_at"`
	ValidatedBy     int       `gorm:"index;not null" json:"validated_by"`
	Comment         string    `gorm:"type:text" json:"comment"`
	IsBulk          bool      `gorm:"default:false" json:"is_bulk"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ValidationRecordView is a record joined with its validator's display name.
type ValidationRecordView struct {
	ValidationRecord
	ValidatorName string `json:"validator_name"`
}

// SaveValidationRecords appends audit rows inside the caller's transaction,
// stamping validated_by from the transaction context.
func SaveValidationRecords(tx *gorm.DB, records []*ValidationRecord) error {

	if len(records) == 0 {
		return nil
	}

	ctx := tx.Statement.Context
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return errors.New("user id is required")
	}
	for i := range records {
		records[i].ValidatedBy = userId
	}

	return tx.Create(&records).Error
}

// GetValidationRecord finds the live record for one hostname and date inside
// the caller's transaction.
func GetValidationRecord(tx *gorm.DB, hostname string, checkDate time.Time) (*ValidationRecord, error) {

	var result ValidationRecord

	err := tx.Where("hostname = ? AND check_date = ?", hostname, checkDate).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// GetValidationRecords lists the date's audit rows newest first, each joined
// with its validator's display name through one batched user lookup. Records
// whose validator no longer exists show "Unknown validator".
func GetValidationRecords(ctx context.Context, checkDate time.Time, application *string, owner *string) ([]*ValidationRecordView, error) {

	db := config.GetDB()
	var records []*ValidationRecord

	dbCtx := db.WithContext(ctx).Where("check_date = ?", checkDate)
	if application != nil && len(*application) > 0 {
		dbCtx = dbCtx.Where("application_name = ?", *application)
	}
	if owner != nil && len(*owner) > 0 {
		dbCtx = dbCtx.Where("asset_owner = ?", *owner)
	}
	err := dbCtx.Order("validated_at DESC, id DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}

	userIds := make([]int, 0, len(records))
	for _, record := range records {
		userIds = append(userIds, record.ValidatedBy)
	}
	names, err := GetUserNamesByIds(ctx, utils.UniqueSlice(userIds))
	if err != nil {
		return nil, err
	}

	results := make([]*ValidationRecordView, 0, len(records))
	for _, record := range records {
		name, ok := names[record.ValidatedBy]
		if !ok {
			name = "Unknown validator"
		}
		results = append(results, &ValidationRecordView{
			ValidationRecord: *record,
			ValidatorName:    name,
		})
	}
	return results, nil
}
