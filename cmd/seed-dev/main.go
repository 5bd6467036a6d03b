// seed-dev loads a small two-day checklist fixture for local development:
// yesterday and today for a handful of hosts, including a changed output, a
// failed host, an unreachable host and a host with no history. Also creates
// an operator user (checklistOperator / Op3rator!).
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev [-reset]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"gorm.io/gorm"
)

const (
	operatorUsername = "checklistOperator"
	operatorPassword = "Op3rator!"
	operatorName     = "Checklist Operator"
)

type seedHost struct {
	hostname    string
	ip          string
	location    string
	application string
	owner       string
	criticality string
	status      models.HostStatus
	// command -> [yesterday output, today output]; empty yesterday output
	// means the host has no history for that command.
	outputs map[string][2]string
}

func fixtureHosts() []seedHost {
	return []seedHost{
		{
			hostname: "web-01", ip: "10.20.1.11", location: "YGN-DC1",
			application: "Billing", owner: "Platform Team", criticality: "high",
			status: models.HostStatusReachable,
			outputs: map[string][2]string{
				"check_status": {"UP", "UP"},
				"uptime":       {"up 41 days", "up 42 days"},
			},
		},
		{
			hostname: "web-02", ip: "10.20.1.12", location: "YGN-DC1",
			application: "Billing", owner: "Platform Team", criticality: "high",
			status: models.HostStatusReachable,
			outputs: map[string][2]string{
				"check_status": {"UP", "UP"},
				"df -h /":      {"use% 61%", "use% 89%"},
			},
		},
		{
			hostname: "db-01", ip: "10.20.2.21", location: "YGN-DC2",
			application: "Billing", owner: "DBA Team", criticality: "critical",
			status: models.HostStatusFailed,
			outputs: map[string][2]string{
				"check_status": {"UP", "DOWN"},
			},
		},
		{
			hostname: "edge-01", ip: "10.30.0.5", location: "MDY-POP",
			application: "CDN", owner: "Network Team", criticality: "medium",
			status: models.HostStatusUnreachable,
			outputs: map[string][2]string{
				"check_status": {"UP", "connection timed out"},
			},
		},
		{
			hostname: "cache-07", ip: "10.30.0.17", location: "MDY-POP",
			application: "CDN", owner: "Network Team", criticality: "low",
			status: models.HostStatusReachable,
			outputs: map[string][2]string{
				"check_status": {"", "UP"},
			},
		},
	}
}

func main() {
	reset := flag.Bool("reset", false, "delete existing entries for the two seeded dates first")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	today, err := utils.ConvertToDate(time.Now(), config.TimeZone())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve today's date: %v\n", err)
		os.Exit(1)
	}
	yesterday := utils.PreviousCheckDate(today)

	if *reset {
		if err := db.WithContext(ctx).Where("check_date IN ?", []time.Time{yesterday, today}).Delete(&models.ChecklistEntry{}).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to clear existing entries: %v\n", err)
			os.Exit(1)
		}
	}

	var entries []*models.ChecklistEntry
	for _, h := range fixtureHosts() {
		for command, outputs := range h.outputs {
			if outputs[0] != "" {
				entries = append(entries, &models.ChecklistEntry{
					Hostname:        h.hostname,
					IP:              h.ip,
					Location:        h.location,
					ApplicationName: h.application,
					AssetOwner:      h.owner,
					Criticality:     h.criticality,
					Command:         command,
					Output:          outputs[0],
					Status:          models.HostStatusReachable,
					CheckDate:       yesterday,
				})
			}
			entries = append(entries, &models.ChecklistEntry{
				Hostname:        h.hostname,
				IP:              h.ip,
				Location:        h.location,
				ApplicationName: h.application,
				AssetOwner:      h.owner,
				Criticality:     h.criticality,
				Command:         command,
				Output:          outputs[1],
				Status:          h.status,
				CheckDate:       today,
			})
		}
	}

	if err := models.CreateEntries(ctx, entries); err != nil {
		fmt.Fprintf(os.Stderr, "failed to insert entries: %v\n", err)
		os.Exit(1)
	}

	if err := seedOperator(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed operator user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d entries for %s and %s\n", len(entries), yesterday.Format("2006-01-02"), today.Format("2006-01-02"))
	fmt.Printf("Operator user: username=%q password=%q\n", operatorUsername, operatorPassword)
	fmt.Println("Run ./cmd/diff-backfill (or wait for the in-server calculator) to resolve diff statuses")
}

func seedOperator(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", operatorUsername).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := utils.HashPassword(operatorPassword)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Create(&models.User{
		Username: operatorUsername,
		Name:     operatorName,
		Password: string(hashed),
		IsActive: utils.NewTrue(),
		Role:     models.UserRoleOperator,
	}).Error
}
