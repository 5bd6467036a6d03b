package models

// CommandDiff is one command's day-over-day comparison for a single host.
// DiffContent is a unified diff and is empty when the output is unchanged or
// the host has no baseline.
type CommandDiff struct {
	Command        string `json:"command"`
	CurrentOutput  string `json:"current_output"`
	PreviousOutput string `json:"previous_output"`
	HasChanged     bool   `json:"has_changed"`
	DiffContent    string `json:"diff_content"`
}

type ReachabilitySummary struct {
	ReachableCount   int `json:"reachable_count"`
	FailedCount      int `json:"failed_count"`
	UnreachableCount int `json:"unreachable_count"`
	TotalHosts       int `json:"total_hosts"`
}

// ChecklistGroup is the per-(application, owner) rollup shown on the summary
// screen. SuccessCount + ErrorCount = hosts in the group.
type ChecklistGroup struct {
	ApplicationName string `json:"application_name"`
	AssetOwner      string `json:"asset_owner"`
	SuccessCount    int    `json:"success_count"`
	ErrorCount      int    `json:"error_count"`
}

type ChecklistSummary struct {
	Reachability ReachabilitySummary `json:"reachability"`
	Groups       []*ChecklistGroup   `json:"groups"`
}

// ChecklistGroupKey identifies one (application, owner) group in bulk
// validation requests. AssetOwner may be empty; hosts without an owner group
// under the empty string.
type ChecklistGroupKey struct {
	ApplicationName string `json:"application_name" binding:"required"`
	AssetOwner      string `json:"asset_owner"`
}

// HostDetail is one host's row on the details screen. Status and DiffStatus
// come straight from the host's stored rows; IsSuccess is the live verdict
// recomputed against the previous day.
type HostDetail struct {
	Hostname        string      `json:"hostname"`
	IP              string      `json:"ip"`
	Location        string      `json:"location"`
	ApplicationName string      `json:"application_name"`
	AssetOwner      string      `json:"asset_owner"`
	Criticality     string      `json:"criticality"`
	Status          HostStatus  `json:"status"`
	DiffStatus      *DiffStatus `json:"diff_status"`
	IsValidated     bool        `json:"is_validated"`
	IsSuccess       bool        `json:"is_success"`
}
