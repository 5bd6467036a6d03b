package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
)

// groupByHostname splits date-ordered entries into per-host slices, keeping
// the (hostname, command, id) order inside each slice and returning hostnames
// in first-seen (ascending) order.
func groupByHostname(rows []*models.ChecklistEntry) ([]string, map[string][]*models.ChecklistEntry) {

	hostnames := make([]string, 0)
	byHost := make(map[string][]*models.ChecklistEntry)

	for _, row := range rows {
		if _, ok := byHost[row.Hostname]; !ok {
			hostnames = append(hostnames, row.Hostname)
		}
		byHost[row.Hostname] = append(byHost[row.Hostname], row)
	}
	return hostnames, byHost
}

// GetChecklistSummary builds the reachability widget and the per-(application,
// owner) success/error groups for one date. Each host is classified once by
// Compare against its own previous-day rows; the group a host lands in comes
// from its representative row (first in hostname, command, id order). Groups
// are returned in (application, owner) order; errorsOnly keeps only groups
// with at least one error.
func GetChecklistSummary(ctx context.Context, checkDate time.Time, application *string, owner *string, errorsOnly bool) (*models.ChecklistSummary, error) {

	currentRows, err := models.GetEntriesByDate(ctx, checkDate, application, owner)
	if err != nil {
		return nil, err
	}

	hostnames, currentByHost := groupByHostname(currentRows)

	previousRows, err := models.GetEntriesForHostnames(ctx, utils.PreviousCheckDate(checkDate), hostnames)
	if err != nil {
		return nil, err
	}
	_, previousByHost := groupByHostname(previousRows)

	summary := models.ChecklistSummary{}
	summary.Reachability.TotalHosts = len(hostnames)

	groupIndex := make(map[string]*models.ChecklistGroup)
	groupKeys := make([]string, 0)

	for _, hostname := range hostnames {
		hostRows := currentByHost[hostname]
		representative := hostRows[0]

		switch representative.Status {
		case models.HostStatusReachable:
			summary.Reachability.ReachableCount++
		case models.HostStatusFailed:
			summary.Reachability.FailedCount++
		case models.HostStatusUnreachable:
			summary.Reachability.UnreachableCount++
		}

		key := representative.ApplicationName + "\x00" + representative.AssetOwner
		group, ok := groupIndex[key]
		if !ok {
			group = &models.ChecklistGroup{
				ApplicationName: representative.ApplicationName,
				AssetOwner:      representative.AssetOwner,
			}
			groupIndex[key] = group
			groupKeys = append(groupKeys, key)
		}

		isSuccess, _ := Compare(hostRows, previousByHost[hostname], false)
		if isSuccess {
			group.SuccessCount++
		} else {
			group.ErrorCount++
		}
	}

	sort.Strings(groupKeys)
	summary.Groups = make([]*models.ChecklistGroup, 0, len(groupKeys))
	for _, key := range groupKeys {
		group := groupIndex[key]
		if errorsOnly && group.ErrorCount == 0 {
			continue
		}
		summary.Groups = append(summary.Groups, group)
	}

	return &summary, nil
}

// GetChecklistDetails returns one row per host for the date with the same
// classification the summary uses, optionally narrowed by collector status
// and by success/error result.
func GetChecklistDetails(ctx context.Context, checkDate time.Time, resultFilter *models.ResultFilter, hostStatus *models.HostStatus, application *string, owner *string) ([]*models.HostDetail, error) {

	currentRows, err := models.GetEntriesByDate(ctx, checkDate, application, owner)
	if err != nil {
		return nil, err
	}

	hostnames, currentByHost := groupByHostname(currentRows)

	previousRows, err := models.GetEntriesForHostnames(ctx, utils.PreviousCheckDate(checkDate), hostnames)
	if err != nil {
		return nil, err
	}
	_, previousByHost := groupByHostname(previousRows)

	details := make([]*models.HostDetail, 0, len(hostnames))
	for _, hostname := range hostnames {
		hostRows := currentByHost[hostname]
		representative := hostRows[0]

		if hostStatus != nil && representative.Status != *hostStatus {
			continue
		}

		isSuccess, _ := Compare(hostRows, previousByHost[hostname], false)
		if resultFilter != nil {
			if *resultFilter == models.ResultFilterSuccess && !isSuccess {
				continue
			}
			if *resultFilter == models.ResultFilterError && isSuccess {
				continue
			}
		}

		details = append(details, &models.HostDetail{
			Hostname:        representative.Hostname,
			IP:              representative.IP,
			Location:        representative.Location,
			ApplicationName: representative.ApplicationName,
			AssetOwner:      representative.AssetOwner,
			Criticality:     representative.Criticality,
			Status:          representative.Status,
			DiffStatus:      representative.DiffStatus,
			IsValidated:     representative.IsValidated,
			IsSuccess:       isSuccess,
		})
	}

	return details, nil
}

// GetHostDiff returns every command of one host for the date compared against
// the previous day, unchanged commands included.
func GetHostDiff(ctx context.Context, hostname string, checkDate time.Time) ([]*models.CommandDiff, error) {

	currentRows, err := models.GetHostEntries(ctx, hostname, checkDate)
	if err != nil {
		return nil, err
	}
	if len(currentRows) == 0 {
		return nil, fmt.Errorf("no checklist entries for %s on %s: %w",
			hostname, checkDate.Format("2006-01-02"), utils.ErrorRecordNotFound)
	}

	previousRows, err := models.GetHostEntries(ctx, hostname, utils.PreviousCheckDate(checkDate))
	if err != nil {
		return nil, err
	}

	_, diffs := Compare(currentRows, previousRows, true)
	return diffs, nil
}
