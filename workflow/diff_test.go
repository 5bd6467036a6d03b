package workflow

import (
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/models"
)

func compareRows(hostname string, checkDate time.Time, outputs map[string]string) []*models.ChecklistEntry {
	rows := make([]*models.ChecklistEntry, 0, len(outputs))
	for command, output := range outputs {
		rows = append(rows, entry(hostname, checkDate, command, output))
	}
	return rows
}

func TestCompareUnchangedHostIsSuccess(t *testing.T) {
	day := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	current := compareRows("web-01", day, map[string]string{
		"check_status": "UP",
		"uptime":       "up 42 days\n",
	})
	previous := compareRows("web-01", day.AddDate(0, 0, -1), map[string]string{
		"check_status": "UP",
		"uptime":       "  up 42 days",
	})

	isSuccess, diffs := Compare(current, previous, false)
	if !isSuccess {
		t.Fatalf("expected success for identical trimmed outputs")
	}
	if len(diffs) != 0 {
		t.Fatalf("expected no diffs, got %d", len(diffs))
	}

	// revealUnchanged returns the same verdict with every command listed
	isSuccess, diffs = Compare(current, previous, true)
	if !isSuccess {
		t.Fatalf("expected success with revealUnchanged")
	}
	if len(diffs) != 2 {
		t.Fatalf("expected 2 command diffs, got %d", len(diffs))
	}
	for _, diff := range diffs {
		if diff.HasChanged {
			t.Fatalf("command %s marked changed", diff.Command)
		}
		if diff.DiffContent != "" {
			t.Fatalf("command %s carries diff content", diff.Command)
		}
	}
}

func TestCompareChangedOutput(t *testing.T) {
	day := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	current := compareRows("web-02", day, map[string]string{
		"check_status": "UP",
		"df -h /":      "use% 89%",
	})
	previous := compareRows("web-02", day.AddDate(0, 0, -1), map[string]string{
		"check_status": "UP",
		"df -h /":      "use% 61%",
	})

	isSuccess, diffs := Compare(current, previous, false)
	if isSuccess {
		t.Fatalf("expected error verdict for changed output")
	}
	if len(diffs) != 1 {
		t.Fatalf("expected only the changed command, got %d diffs", len(diffs))
	}
	diff := diffs[0]
	if diff.Command != "df -h /" {
		t.Fatalf("expected df -h / diff, got %s", diff.Command)
	}
	if !diff.HasChanged {
		t.Fatalf("expected HasChanged")
	}
	if !strings.Contains(diff.DiffContent, "--- previous") || !strings.Contains(diff.DiffContent, "+++ current") {
		t.Fatalf("unexpected diff header: %q", diff.DiffContent)
	}
	if !strings.Contains(diff.DiffContent, "-use% 61%") || !strings.Contains(diff.DiffContent, "+use% 89%") {
		t.Fatalf("unexpected diff body: %q", diff.DiffContent)
	}
}

func TestCompareUnionOfCommands(t *testing.T) {
	day := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	current := compareRows("db-01", day, map[string]string{
		"check_status": "UP",
		"new_probe":    "ok",
	})
	previous := compareRows("db-01", day.AddDate(0, 0, -1), map[string]string{
		"check_status": "UP",
		"old_probe":    "ok",
	})

	isSuccess, diffs := Compare(current, previous, true)
	if isSuccess {
		t.Fatalf("expected error verdict when commands appear or disappear")
	}
	if len(diffs) != 3 {
		t.Fatalf("expected 3 commands in the union, got %d", len(diffs))
	}
	// lexicographic command order
	expected := []string{"check_status", "new_probe", "old_probe"}
	for i, diff := range diffs {
		if diff.Command != expected[i] {
			t.Fatalf("expected command %s at %d, got %s", expected[i], i, diff.Command)
		}
	}
	if diffs[0].HasChanged {
		t.Fatalf("check_status should be unchanged")
	}
	// added today: empty previous side
	if !diffs[1].HasChanged || diffs[1].PreviousOutput != "" {
		t.Fatalf("new_probe should be a change against empty previous output")
	}
	// dropped today: empty current side
	if !diffs[2].HasChanged || diffs[2].CurrentOutput != "" {
		t.Fatalf("old_probe should be a change against empty current output")
	}
}

func TestCompareNoBaseline(t *testing.T) {
	day := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	current := compareRows("new-01", day, map[string]string{
		"check_status": "UP",
		"uptime":       "up 1 day",
	})

	isSuccess, diffs := Compare(current, nil, false)
	if !isSuccess {
		t.Fatalf("expected success for a host with no baseline")
	}
	if len(diffs) != 0 {
		t.Fatalf("expected no diffs without revealUnchanged, got %d", len(diffs))
	}

	isSuccess, diffs = Compare(current, nil, true)
	if !isSuccess {
		t.Fatalf("expected success for a host with no baseline")
	}
	if len(diffs) != 2 {
		t.Fatalf("expected every command listed, got %d", len(diffs))
	}
	if diffs[0].Command != "check_status" || diffs[1].Command != "uptime" {
		t.Fatalf("expected sorted commands, got %s, %s", diffs[0].Command, diffs[1].Command)
	}
	for _, diff := range diffs {
		if diff.PreviousOutput != NoBaselinePlaceholder {
			t.Fatalf("expected placeholder previous output, got %q", diff.PreviousOutput)
		}
		if diff.HasChanged || diff.DiffContent != "" {
			t.Fatalf("no-baseline commands must not carry a diff")
		}
	}
}

func TestCompareValidatedOverride(t *testing.T) {
	day := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	current := compareRows("db-01", day, map[string]string{
		"check_status": "DOWN",
	})
	current[0].IsValidated = true
	previous := compareRows("db-01", day.AddDate(0, 0, -1), map[string]string{
		"check_status": "UP",
	})

	isSuccess, diffs := Compare(current, previous, false)
	if !isSuccess {
		t.Fatalf("expected validated host to be forced to success")
	}
	// the diff list itself is not suppressed
	if len(diffs) != 1 || diffs[0].Command != "check_status" || !diffs[0].HasChanged {
		t.Fatalf("expected the changed command to stay visible, got %+v", diffs)
	}
}

func TestCompareDuplicateCommandLastRowWins(t *testing.T) {
	day := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	current := []*models.ChecklistEntry{
		entry("web-01", day, "check_status", "STARTING"),
		entry("web-01", day, "check_status", "UP"),
	}
	previous := []*models.ChecklistEntry{
		entry("web-01", day.AddDate(0, 0, -1), "check_status", "UP"),
	}

	isSuccess, diffs := Compare(current, previous, false)
	if !isSuccess {
		t.Fatalf("expected the later row's output to win the comparison")
	}
	if len(diffs) != 0 {
		t.Fatalf("expected no diffs, got %d", len(diffs))
	}
}
