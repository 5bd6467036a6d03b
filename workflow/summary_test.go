package workflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"gorm.io/gorm"
)

// seedFleet loads a two-day fixture of five hosts plus one retired host that
// only exists on the previous day:
//
//	web-01   Portal/Platform Team   reachable    unchanged
//	web-02   Billing/Platform Team  reachable    disk usage drifted
//	db-01    Billing/DBA Team       failed       service went down
//	edge-01  CDN/Network Team       unreachable  collector timed out
//	new-01   CDN/Network Team       reachable    first seen today
func seedFleet(t *testing.T, db *gorm.DB) (time.Time, time.Time) {
	t.Helper()
	today := testDate(t, "2026-08-21")
	yesterday := testDate(t, "2026-08-20")

	web1 := entry("web-01", today, "check_status", "UP")
	web1.ApplicationName = "Portal"
	prevWeb1 := entry("web-01", yesterday, "check_status", "UP")
	prevWeb1.ApplicationName = "Portal"

	web2 := entry("web-02", today, "df -h /", "use% 89%")
	prevWeb2 := entry("web-02", yesterday, "df -h /", "use% 61%")

	db1 := entry("db-01", today, "check_status", "DOWN")
	db1.AssetOwner = "DBA Team"
	db1.Status = models.HostStatusFailed
	prevDb1 := entry("db-01", yesterday, "check_status", "UP")
	prevDb1.AssetOwner = "DBA Team"

	edge1 := entry("edge-01", today, "check_status", "connect timeout")
	edge1.ApplicationName = "CDN"
	edge1.AssetOwner = "Network Team"
	edge1.Status = models.HostStatusUnreachable
	prevEdge1 := entry("edge-01", yesterday, "check_status", "UP")
	prevEdge1.ApplicationName = "CDN"
	prevEdge1.AssetOwner = "Network Team"

	new1 := entry("new-01", today, "check_status", "UP")
	new1.ApplicationName = "CDN"
	new1.AssetOwner = "Network Team"

	retired := entry("legacy-01", yesterday, "check_status", "UP")

	seedEntries(t, db, web1, prevWeb1, web2, prevWeb2, db1, prevDb1, edge1, prevEdge1, new1, retired)
	return today, yesterday
}

func TestGetChecklistSummary(t *testing.T) {
	db := newTestDB(t)
	today, _ := seedFleet(t, db)
	ctx := context.Background()

	summary, err := GetChecklistSummary(ctx, today, nil, nil, false)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	r := summary.Reachability
	if r.TotalHosts != 5 || r.ReachableCount != 3 || r.FailedCount != 1 || r.UnreachableCount != 1 {
		t.Fatalf("unexpected reachability: %+v", r)
	}

	wantGroups := []models.ChecklistGroup{
		{ApplicationName: "Billing", AssetOwner: "DBA Team", SuccessCount: 0, ErrorCount: 1},
		{ApplicationName: "Billing", AssetOwner: "Platform Team", SuccessCount: 0, ErrorCount: 1},
		{ApplicationName: "CDN", AssetOwner: "Network Team", SuccessCount: 1, ErrorCount: 1},
		{ApplicationName: "Portal", AssetOwner: "Platform Team", SuccessCount: 1, ErrorCount: 0},
	}
	if len(summary.Groups) != len(wantGroups) {
		t.Fatalf("expected %d groups, got %d", len(wantGroups), len(summary.Groups))
	}
	for i, want := range wantGroups {
		if *summary.Groups[i] != want {
			t.Fatalf("group %d: expected %+v, got %+v", i, want, *summary.Groups[i])
		}
	}
}

func TestGetChecklistSummaryErrorsOnly(t *testing.T) {
	db := newTestDB(t)
	today, _ := seedFleet(t, db)
	ctx := context.Background()

	summary, err := GetChecklistSummary(ctx, today, nil, nil, true)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.Groups) != 3 {
		t.Fatalf("expected 3 groups with errors, got %d", len(summary.Groups))
	}
	for _, group := range summary.Groups {
		if group.ErrorCount == 0 {
			t.Fatalf("all-success group leaked through: %+v", *group)
		}
		if group.ApplicationName == "Portal" {
			t.Fatalf("Portal has no errors and should be filtered out")
		}
	}

	// validating a drifted host moves its group back to success
	err = db.Model(&models.ChecklistEntry{}).
		Where("hostname = ? AND check_date = ?", "web-02", today).
		Update("is_validated", true).Error
	if err != nil {
		t.Fatalf("mark validated: %v", err)
	}

	summary, err = GetChecklistSummary(ctx, today, nil, nil, true)
	if err != nil {
		t.Fatalf("summary after validation: %v", err)
	}
	if len(summary.Groups) != 2 {
		t.Fatalf("expected 2 groups after validation, got %d", len(summary.Groups))
	}
	for _, group := range summary.Groups {
		if group.ApplicationName == "Billing" && group.AssetOwner == "Platform Team" {
			t.Fatalf("validated group should no longer report errors: %+v", *group)
		}
	}
}

func TestGetChecklistSummaryFiltered(t *testing.T) {
	db := newTestDB(t)
	today, _ := seedFleet(t, db)
	ctx := context.Background()

	application := "Billing"
	summary, err := GetChecklistSummary(ctx, today, &application, nil, false)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	r := summary.Reachability
	if r.TotalHosts != 2 || r.ReachableCount != 1 || r.FailedCount != 1 || r.UnreachableCount != 0 {
		t.Fatalf("unexpected filtered reachability: %+v", r)
	}
	if len(summary.Groups) != 2 {
		t.Fatalf("expected 2 Billing groups, got %d", len(summary.Groups))
	}

	owner := "DBA Team"
	summary, err = GetChecklistSummary(ctx, today, &application, &owner, false)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Reachability.TotalHosts != 1 || len(summary.Groups) != 1 {
		t.Fatalf("expected a single db-01 group, got %+v", summary)
	}
	if summary.Groups[0].ErrorCount != 1 {
		t.Fatalf("db-01 should be an error: %+v", *summary.Groups[0])
	}
}

func TestGetChecklistDetails(t *testing.T) {
	db := newTestDB(t)
	today, _ := seedFleet(t, db)
	ctx := context.Background()

	hasDiff := models.DiffStatusDiff
	err := db.Model(&models.ChecklistEntry{}).
		Where("hostname = ? AND check_date = ?", "web-02", today).
		Update("diff_status", hasDiff).Error
	if err != nil {
		t.Fatalf("set diff status: %v", err)
	}

	details, err := GetChecklistDetails(ctx, today, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(details) != 5 {
		t.Fatalf("expected 5 hosts, got %d", len(details))
	}

	wantSuccess := map[string]bool{
		"db-01":   false,
		"edge-01": false,
		"new-01":  true,
		"web-01":  true,
		"web-02":  false,
	}
	order := []string{"db-01", "edge-01", "new-01", "web-01", "web-02"}
	for i, detail := range details {
		if detail.Hostname != order[i] {
			t.Fatalf("row %d: expected %s, got %s", i, order[i], detail.Hostname)
		}
		if detail.IsSuccess != wantSuccess[detail.Hostname] {
			t.Fatalf("%s: expected is_success=%v", detail.Hostname, wantSuccess[detail.Hostname])
		}
	}

	first := details[0]
	if first.Status != models.HostStatusFailed || first.AssetOwner != "DBA Team" ||
		first.IP != "10.20.1.11" || first.Location != "YGN-DC1" || first.Criticality != "high" {
		t.Fatalf("db-01 fields off: %+v", *first)
	}
	if first.DiffStatus != nil {
		t.Fatalf("db-01 has no stored diff status, got %v", *first.DiffStatus)
	}
	last := details[4]
	if last.DiffStatus == nil || *last.DiffStatus != models.DiffStatusDiff {
		t.Fatalf("web-02 should carry the stored diff status, got %v", last.DiffStatus)
	}
}

func TestGetChecklistDetailsFilters(t *testing.T) {
	db := newTestDB(t)
	today, _ := seedFleet(t, db)
	ctx := context.Background()

	success := models.ResultFilterSuccess
	details, err := GetChecklistDetails(ctx, today, &success, nil, nil, nil)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("expected 2 success hosts, got %d", len(details))
	}

	errorFilter := models.ResultFilterError
	reachable := models.HostStatusReachable
	details, err = GetChecklistDetails(ctx, today, &errorFilter, &reachable, nil, nil)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(details) != 1 || details[0].Hostname != "web-02" {
		t.Fatalf("expected only web-02 to be reachable with an error, got %+v", details)
	}

	// the three collector statuses partition the fleet
	total := 0
	for _, status := range models.AllHostStatus {
		filtered, err := GetChecklistDetails(ctx, today, nil, &status, nil, nil)
		if err != nil {
			t.Fatalf("details for %s: %v", status, err)
		}
		total += len(filtered)
	}
	if total != 5 {
		t.Fatalf("status filters should cover every host once, got %d", total)
	}
}

func TestGetHostDiff(t *testing.T) {
	db := newTestDB(t)
	today := testDate(t, "2026-08-21")
	yesterday := testDate(t, "2026-08-20")

	seedEntries(t, db,
		entry("mix-01", today, "check_status", "UP"),
		entry("mix-01", today, "df -h /", "use% 89%"),
		entry("mix-01", yesterday, "check_status", "UP"),
		entry("mix-01", yesterday, "df -h /", "use% 61%"),
	)

	diffs, err := GetHostDiff(context.Background(), "mix-01", today)
	if err != nil {
		t.Fatalf("host diff: %v", err)
	}
	if len(diffs) != 2 {
		t.Fatalf("expected both commands, got %d", len(diffs))
	}

	unchanged := diffs[0]
	if unchanged.Command != "check_status" || unchanged.HasChanged || unchanged.DiffContent != "" {
		t.Fatalf("check_status should be unchanged: %+v", *unchanged)
	}
	changed := diffs[1]
	if changed.Command != "df -h /" || !changed.HasChanged {
		t.Fatalf("df -h / should have changed: %+v", *changed)
	}
	if !strings.Contains(changed.DiffContent, "-use% 61%") || !strings.Contains(changed.DiffContent, "+use% 89%") {
		t.Fatalf("diff content missing hunks:\n%s", changed.DiffContent)
	}
}

func TestGetHostDiffNoBaseline(t *testing.T) {
	db := newTestDB(t)
	today := testDate(t, "2026-08-21")

	seedEntries(t, db,
		entry("fresh-01", today, "check_status", "UP"),
		entry("fresh-01", today, "uptime", "up 2 min"),
	)

	diffs, err := GetHostDiff(context.Background(), "fresh-01", today)
	if err != nil {
		t.Fatalf("host diff: %v", err)
	}
	if len(diffs) != 2 {
		t.Fatalf("expected placeholder rows for both commands, got %d", len(diffs))
	}
	for _, diff := range diffs {
		if diff.PreviousOutput != NoBaselinePlaceholder {
			t.Fatalf("%s: expected placeholder previous output, got %q", diff.Command, diff.PreviousOutput)
		}
		if diff.HasChanged || diff.DiffContent != "" {
			t.Fatalf("%s: first sighting must not report a change", diff.Command)
		}
	}
}

func TestGetHostDiffUnknownHost(t *testing.T) {
	db := newTestDB(t)
	today := testDate(t, "2026-08-21")
	seedEntries(t, db, entry("web-01", today, "check_status", "UP"))

	_, err := GetHostDiff(context.Background(), "ghost-01", today)
	if !utils.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
