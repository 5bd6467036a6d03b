package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DiffCalculator settles the stored diff_status of checklist entries in the
// background, at (hostname, command) granularity: each unresolved row is
// matched against the same hostname+command on the previous day. No peer
// means a fresh entry (no_diff); otherwise trimmed outputs decide
// no_diff/diff. This is intentionally a different granularity from Compare's
// per-host verdict; the two never reconcile.
//
// One calculator per process; the checklist:diffcalc lease keeps concurrent
// instances from running the same backlog.
type DiffCalculator struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	Locker       *redislock.Client
	CalculatorID string
	PageSize     int
	PollInterval time.Duration
	LockTTL      time.Duration
}

func NewDiffCalculator(db *gorm.DB, logger *logrus.Logger) *DiffCalculator {
	return &DiffCalculator{
		DB:           db,
		Logger:       logger,
		Locker:       config.GetRedisLock(),
		CalculatorID: uuid.NewString(),
		PageSize:     config.DiffCalcPageSize(),
		PollInterval: config.DiffCalcInterval(),
		LockTTL:      2 * time.Minute,
	}
}

// Run resolves on a fixed interval until ctx is done.
func (c *DiffCalculator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, err := c.ResolveOnce(ctx); err != nil && ctx.Err() == nil {
			if c.Logger != nil {
				c.Logger.WithFields(logrus.Fields{
					"calculator_id": c.CalculatorID,
					"error":         err.Error(),
				}).Error("diff calculator run failed")
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.PollInterval):
		}
	}
}

// ResolveOnce works through the whole unresolved backlog in pages of PageSize,
// one transaction per page, and returns how many rows it settled. When the
// lease is already held elsewhere it returns immediately. On error the
// current page rolls back and the run stops; pages already committed stay
// committed, and rerunning is safe because resolved rows leave the scan.
func (c *DiffCalculator) ResolveOnce(ctx context.Context) (int, error) {

	lock, err := c.obtainLease(ctx)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return 0, nil
		}
		config.LogError(c.Logger, "diffCalculator.go", "ResolveOnce", "ObtainLease", c.CalculatorID, err)
		return 0, err
	}
	if lock != nil {
		defer lock.Release(context.Background())
	}

	resolved := 0
	for {
		select {
		case <-ctx.Done():
			return resolved, ctx.Err()
		default:
		}

		count, err := c.resolvePage(ctx)
		if err != nil {
			config.LogError(c.Logger, "diffCalculator.go", "ResolveOnce", "ResolvePage", resolved, err)
			return resolved, err
		}
		if count == 0 {
			return resolved, nil
		}
		resolved += count

		if lock != nil {
			if err := lock.Refresh(ctx, c.LockTTL, nil); err != nil {
				config.LogError(c.Logger, "diffCalculator.go", "ResolveOnce", "RefreshLease", c.CalculatorID, err)
				return resolved, err
			}
		}
	}
}

func (c *DiffCalculator) obtainLease(ctx context.Context) (*redislock.Lock, error) {
	if c.Locker == nil {
		return nil, nil
	}
	return c.Locker.Obtain(ctx, "checklist:diffcalc", c.LockTTL, nil)
}

func (c *DiffCalculator) resolvePage(ctx context.Context) (int, error) {

	resolved := 0
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var rows []*models.ChecklistEntry
		err := tx.
			Where("diff_status IS NULL OR diff_status = ?", models.DiffStatusPending).
			Order("id ASC").
			Limit(c.PageSize).
			Find(&rows).Error
		if err != nil {
			return err
		}

		for _, row := range rows {
			status, err := c.resolveRow(tx, row)
			if err != nil {
				return err
			}
			// re-guard on unresolved so a resolved value is never overwritten
			result := tx.Model(&models.ChecklistEntry{}).
				Where("id = ? AND (diff_status IS NULL OR diff_status = ?)", row.ID, models.DiffStatusPending).
				Update("diff_status", status)
			if result.Error != nil {
				return result.Error
			}
			resolved += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return resolved, nil
}

func (c *DiffCalculator) resolveRow(tx *gorm.DB, row *models.ChecklistEntry) (models.DiffStatus, error) {

	previousDate := utils.PreviousCheckDate(row.CheckDate)

	var peer models.ChecklistEntry
	err := tx.
		Where("hostname = ? AND command = ? AND check_date = ?", row.Hostname, row.Command, previousDate).
		Order("id ASC").
		First(&peer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// first sighting of this hostname+command
			return models.DiffStatusNoDiff, nil
		}
		return "", err
	}

	if strings.TrimSpace(row.Output) == strings.TrimSpace(peer.Output) {
		return models.DiffStatusNoDiff, nil
	}
	return models.DiffStatusDiff, nil
}
