package models

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/utils"
)

func TestSaveValidationRecordsStampsActor(t *testing.T) {
	db := newTestDB(t)
	date := testDate(t, "2026-08-21")
	aliceId := seedUser(t, db, "alice", "Alice Lwin")

	records := []*ValidationRecord{{
		Hostname:        "web-01",
		ApplicationName: "Billing",
		AssetOwner:      "Platform Team",
		Criticality:     "high",
		CheckDate:       date,
		ValidatedAt:     time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC),
		Comment:         "looked fine",
	}}
	if err := SaveValidationRecords(actorTx(db, aliceId), records); err != nil {
		t.Fatalf("save: %v", err)
	}

	saved, err := GetValidationRecord(db, "web-01", date)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if saved.ValidatedBy != aliceId {
		t.Fatalf("expected validated_by %d, got %d", aliceId, saved.ValidatedBy)
	}
	if saved.Comment != "looked fine" || saved.ApplicationName != "Billing" {
		t.Fatalf("record fields off: %+v", *saved)
	}

	if _, err := GetValidationRecord(db, "web-99", date); !utils.IsNotFound(err) {
		t.Fatalf("expected not found for unknown host, got %v", err)
	}
}

func TestSaveValidationRecordsRequiresUser(t *testing.T) {
	db := newTestDB(t)
	date := testDate(t, "2026-08-21")

	records := []*ValidationRecord{{
		Hostname:    "web-01",
		CheckDate:   date,
		ValidatedAt: time.Now(),
	}}
	err := SaveValidationRecords(db, records)
	if err == nil || err.Error() != "user id is required" {
		t.Fatalf("expected user id error, got %v", err)
	}

	var count int64
	if err := db.Model(&ValidationRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("nothing should be saved, got %d rows", count)
	}
}

func TestGetValidationRecords(t *testing.T) {
	db := newTestDB(t)
	date := testDate(t, "2026-08-21")
	otherDate := testDate(t, "2026-08-20")
	aliceId := seedUser(t, db, "alice", "Alice Lwin")
	boId := seedUser(t, db, "bobo", "Bo Bo")

	seed := func(userId int, record ValidationRecord) {
		t.Helper()
		if err := SaveValidationRecords(actorTx(db, userId), []*ValidationRecord{&record}); err != nil {
			t.Fatalf("seed record %s: %v", record.Hostname, err)
		}
	}
	seed(aliceId, ValidationRecord{
		Hostname:        "web-01",
		ApplicationName: "Billing",
		AssetOwner:      "Platform Team",
		CheckDate:       date,
		ValidatedAt:     time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC),
	})
	seed(boId, ValidationRecord{
		Hostname:        "edge-01",
		ApplicationName: "CDN",
		AssetOwner:      "Network Team",
		CheckDate:       date,
		ValidatedAt:     time.Date(2026, 8, 21, 11, 30, 0, 0, time.UTC),
	})
	// validator deleted after the fact
	seed(404, ValidationRecord{
		Hostname:        "db-01",
		ApplicationName: "Billing",
		AssetOwner:      "DBA Team",
		CheckDate:       date,
		ValidatedAt:     time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC),
	})
	seed(aliceId, ValidationRecord{
		Hostname:    "web-01",
		CheckDate:   otherDate,
		ValidatedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	})

	views, err := GetValidationRecords(context.Background(), date, nil, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 records for the date, got %d", len(views))
	}

	wantOrder := []string{"edge-01", "web-01", "db-01"}
	wantNames := []string{"Bo Bo", "Alice Lwin", "Unknown validator"}
	for i, view := range views {
		if view.Hostname != wantOrder[i] {
			t.Fatalf("row %d: expected %s, got %s", i, wantOrder[i], view.Hostname)
		}
		if view.ValidatorName != wantNames[i] {
			t.Fatalf("row %d: expected validator %q, got %q", i, wantNames[i], view.ValidatorName)
		}
	}

	application := "Billing"
	views, err = GetValidationRecords(context.Background(), date, &application, nil)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 Billing records, got %d", len(views))
	}

	owner := "DBA Team"
	views, err = GetValidationRecords(context.Background(), date, &application, &owner)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(views) != 1 || views[0].Hostname != "db-01" {
		t.Fatalf("expected only db-01, got %+v", views)
	}
}
