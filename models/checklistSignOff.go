package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"gorm.io/gorm"
)

// ChecklistSignOff closes a checklist day. One row per check_date; repeating
// the sign-off replaces the previous signer and timestamp.
type ChecklistSignOff struct {
	ID          int       `gorm:"primary_key" json:"id"`
	CheckDate   time.Time `gorm:"not null;uniqueIndex:idx_sign_off_date" json:"check_date"`
	ValidatedAt time.Time `gorm:"not null" json:"validated_at"`
	ValidatedBy int       `gorm:"not null" json:"validated_by"`
	Comment     string    `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetSignOff returns the date's sign-off, ErrorRecordNotFound when the date
// has not been signed off.
func GetSignOff(ctx context.Context, checkDate time.Time) (*ChecklistSignOff, error) {

	db := config.GetDB()
	var result ChecklistSignOff

	err := db.WithContext(ctx).Where("check_date = ?", checkDate).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}
