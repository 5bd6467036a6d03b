package reports

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"github.com/xuri/excelize/v2"
)

const checklistSheet = "Checklist"

var checklistHeaders = []string{
	"Hostname", "IP", "Location", "Application", "Asset Owner",
	"Command", "Status", "Current Output", "Previous Output", "Result",
}

const maxColumnWidth = 60

// BuildChecklistReport renders the date's checklist as a workbook: one row
// per (hostname, command) with current and previous outputs side by side.
// The result column re-derives equality per command by trimmed comparison
// (this report needs per-command granularity, not the per-host summary
// verdict): "Diff", "No Diff", or "New — No History" when the command has no
// previous-day peer. Diff rows are filled red. A date with no entries is
// not-found rather than an empty artifact.
func BuildChecklistReport(ctx context.Context, checkDate time.Time, application *string, owner *string) (*excelize.File, error) {

	currentRows, err := models.GetEntriesByDate(ctx, checkDate, application, owner)
	if err != nil {
		return nil, err
	}
	if len(currentRows) == 0 {
		return nil, fmt.Errorf("no checklist entries on %s: %w",
			checkDate.Format("2006-01-02"), utils.ErrorRecordNotFound)
	}

	hostnames := make([]string, 0, len(currentRows))
	seen := make(map[string]bool)
	for _, row := range currentRows {
		if !seen[row.Hostname] {
			seen[row.Hostname] = true
			hostnames = append(hostnames, row.Hostname)
		}
	}

	previousRows, err := models.GetEntriesForHostnames(ctx, utils.PreviousCheckDate(checkDate), hostnames)
	if err != nil {
		return nil, err
	}
	previousOutputs := make(map[string]string, len(previousRows))
	for _, row := range previousRows {
		previousOutputs[row.Hostname+"\x00"+row.Command] = row.Output
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", checklistSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	diffStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
		Font: &excelize.Font{Color: "9C0006"},
	})
	if err != nil {
		return nil, err
	}

	widths := make([]float64, len(checklistHeaders))
	trackWidth := func(column int, value string) {
		width := float64(len(value)) + 2
		if width > widths[column] {
			widths[column] = width
		}
	}

	col := 'A'
	for i, header := range checklistHeaders {
		f.SetCellValue(checklistSheet, string(col)+"1", header)
		trackWidth(i, header)
		col++
	}
	f.SetCellStyle(checklistSheet, "A1", "J1", headerStyle)

	rowNo := 2
	for _, row := range currentRows {
		previousOutput, hasPeer := previousOutputs[row.Hostname+"\x00"+row.Command]

		var result string
		switch {
		case !hasPeer:
			result = "New — No History"
			previousOutput = ""
		case strings.TrimSpace(row.Output) == strings.TrimSpace(previousOutput):
			result = "No Diff"
		default:
			result = "Diff"
		}

		values := []string{
			row.Hostname, row.IP, row.Location, row.ApplicationName, row.AssetOwner,
			row.Command, string(row.Status), row.Output, previousOutput, result,
		}
		col := 'A'
		for i, value := range values {
			f.SetCellValue(checklistSheet, string(col)+fmt.Sprint(rowNo), value)
			trackWidth(i, value)
			col++
		}
		if result == "Diff" {
			f.SetCellStyle(checklistSheet, "A"+fmt.Sprint(rowNo), "J"+fmt.Sprint(rowNo), diffStyle)
		}
		rowNo++
	}

	col = 'A'
	for i := range checklistHeaders {
		width := widths[i]
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		f.SetColWidth(checklistSheet, string(col), string(col), width)
		col++
	}

	return f, nil
}

// ExportChecklistReport streams the workbook as an xlsx attachment. Errors
// raised before the first write are returned for the caller to map; callers
// must not write their own response after a partial stream.
func ExportChecklistReport(ctx context.Context, w http.ResponseWriter, checkDate time.Time, application *string, owner *string) error {

	f, err := BuildChecklistReport(ctx, checkDate, application, owner)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=checklist_%s.xlsx", checkDate.Format("2006-01-02")))
	return f.Write(w)
}
