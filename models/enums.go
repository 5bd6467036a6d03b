package models

import (
	"fmt"

	"bitbucket.org/mmdatafocus/checklist_backend/utils"
)

// HostStatus is the reachability the collector reported for a host's rows.
type HostStatus string

const (
	HostStatusReachable   HostStatus = "reachable"
	HostStatusFailed      HostStatus = "failed"
	HostStatusUnreachable HostStatus = "unreachable"
	HostStatusOther       HostStatus = "other"
)

var AllHostStatus = []HostStatus{
	HostStatusReachable,
	HostStatusFailed,
	HostStatusUnreachable,
	HostStatusOther,
}

func (e HostStatus) IsValid() bool {
	switch e {
	case HostStatusReachable, HostStatusFailed, HostStatusUnreachable, HostStatusOther:
		return true
	}
	return false
}

func (e HostStatus) String() string {
	return string(e)
}

// convert query param to enum type
func ParseHostStatus(value string) (HostStatus, error) {
	status := HostStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("%s is not a valid host status: %w", value, utils.ErrorBadRequest)
	}
	return status, nil
}

// DiffStatus is the persisted day-over-day verdict for one (hostname, command)
// row, written once by the diff calculator. A row with NULL or pending is
// unresolved and still waiting for the calculator.
type DiffStatus string

const (
	DiffStatusPending DiffStatus = "pending"
	DiffStatusNoDiff  DiffStatus = "no_diff"
	DiffStatusDiff    DiffStatus = "diff"
)

func (e DiffStatus) IsValid() bool {
	switch e {
	case DiffStatusPending, DiffStatusNoDiff, DiffStatusDiff:
		return true
	}
	return false
}

func (e DiffStatus) String() string {
	return string(e)
}

// ResultFilter narrows the details view to hosts classified success or error.
type ResultFilter string

const (
	ResultFilterSuccess ResultFilter = "success"
	ResultFilterError   ResultFilter = "error"
)

func (e ResultFilter) IsValid() bool {
	switch e {
	case ResultFilterSuccess, ResultFilterError:
		return true
	}
	return false
}

func (e ResultFilter) String() string {
	return string(e)
}

func ParseResultFilter(value string) (ResultFilter, error) {
	filter := ResultFilter(value)
	if !filter.IsValid() {
		return "", fmt.Errorf("%s is not a valid result filter: %w", value, utils.ErrorBadRequest)
	}
	return filter, nil
}

// UserRole: A = admin, O = operator, V = viewer.
type UserRole string

const (
	UserRoleAdmin    UserRole = "A"
	UserRoleOperator UserRole = "O"
	UserRoleViewer   UserRole = "V"
)

func (e UserRole) IsValid() bool {
	switch e {
	case UserRoleAdmin, UserRoleOperator, UserRoleViewer:
		return true
	}
	return false
}

func (e UserRole) String() string {
	return string(e)
}
