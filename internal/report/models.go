// Package report serves read-only aggregates for the admin dashboard.
// Everything here is computed by the database; no report state is stored.
package report

// HeadcountRow is one department's active headcount. Employees without a
// department land in the row with an empty name.
type HeadcountRow struct {
	DepartmentName string `json:"departmentName"`
	Count          int    `json:"count"`
}

// LeaveUsageRow aggregates balance figures per category for one year.
type LeaveUsageRow struct {
	Category  string  `json:"category"`
	Year      int     `json:"year"`
	Allocated float64 `json:"allocated"`
	Used      float64 `json:"used"`
	Pending   float64 `json:"pending"`
}

// AuditVolumeRow is the ledger entry count at one severity.
type AuditVolumeRow struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}
