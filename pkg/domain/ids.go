// Package domain defines the typed identifiers shared across the system.
//
// Each entity gets its own UUID-backed type so the compiler catches
// cross-entity ID mixups. Parse helpers enforce the invariant that IDs
// are valid, non-nil UUIDs at trust boundaries (HTTP, storage).
package domain

import (
	"fmt"

	"github.com/google/uuid"

	dErrors "peopleops/pkg/domain-errors"
)

type (
	// TenantID identifies an isolated customer organization.
	TenantID uuid.UUID
	// EmployeeID identifies an employee record.
	EmployeeID uuid.UUID
	// UserID identifies an authenticated account acting on the API.
	UserID uuid.UUID
	// PolicyID identifies a mixed-vacation policy.
	PolicyID uuid.UUID
	// LeaveRequestID identifies a leave request.
	LeaveRequestID uuid.UUID
	// EntryID identifies an audit ledger entry.
	EntryID uuid.UUID
	// DepartmentID identifies a department.
	DepartmentID uuid.UUID
	// PositionID identifies a position.
	PositionID uuid.UUID
	// SchoolID identifies a school/campus.
	SchoolID uuid.UUID
	// HolidayID identifies a holiday calendar entry.
	HolidayID uuid.UUID
	// NotificationID identifies a notification record.
	NotificationID uuid.UUID
	// AnnouncementID identifies an announcement.
	AnnouncementID uuid.UUID
	// SurveyID identifies a survey.
	SurveyID uuid.UUID
	// BackupID identifies a backup run record.
	BackupID uuid.UUID
)

func (id TenantID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id EmployeeID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id PolicyID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id LeaveRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id DepartmentID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PositionID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SchoolID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id HolidayID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AnnouncementID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SurveyID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id BackupID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

func (id TenantID) String() string       { return uuid.UUID(id).String() }
func (id EmployeeID) String() string     { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id PolicyID) String() string       { return uuid.UUID(id).String() }
func (id LeaveRequestID) String() string { return uuid.UUID(id).String() }
func (id EntryID) String() string        { return uuid.UUID(id).String() }
func (id DepartmentID) String() string   { return uuid.UUID(id).String() }
func (id PositionID) String() string     { return uuid.UUID(id).String() }
func (id SchoolID) String() string       { return uuid.UUID(id).String() }
func (id HolidayID) String() string      { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id AnnouncementID) String() string { return uuid.UUID(id).String() }
func (id SurveyID) String() string       { return uuid.UUID(id).String() }
func (id BackupID) String() string       { return uuid.UUID(id).String() }

func (id TenantID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id EmployeeID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id PolicyID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id LeaveRequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EntryID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id DepartmentID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id PositionID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id SchoolID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id HolidayID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id AnnouncementID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id SurveyID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id BackupID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }

func unmarshalUUID(text []byte) (uuid.UUID, error) { return uuid.ParseBytes(text) }

func (id *TenantID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = TenantID(u)
	return err
}

func (id *EmployeeID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = EmployeeID(u)
	return err
}

func (id *UserID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = UserID(u)
	return err
}

func (id *PolicyID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = PolicyID(u)
	return err
}

func (id *LeaveRequestID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = LeaveRequestID(u)
	return err
}

func (id *EntryID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = EntryID(u)
	return err
}

func (id *DepartmentID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = DepartmentID(u)
	return err
}

func (id *PositionID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = PositionID(u)
	return err
}

func (id *SchoolID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = SchoolID(u)
	return err
}

func (id *HolidayID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = HolidayID(u)
	return err
}

func (id *NotificationID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = NotificationID(u)
	return err
}

func (id *AnnouncementID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = AnnouncementID(u)
	return err
}

func (id *SurveyID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = SurveyID(u)
	return err
}

func (id *BackupID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID(text)
	*id = BackupID(u)
	return err
}

// parseUUID enforces the shared ID invariant: valid format, not nil.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s is required", kind))
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s must be a valid UUID", kind))
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s must not be the nil UUID", kind))
	}
	return parsed, nil
}

func ParseTenantID(raw string) (TenantID, error) {
	u, err := parseUUID(raw, "tenant id")
	return TenantID(u), err
}

func ParseEmployeeID(raw string) (EmployeeID, error) {
	u, err := parseUUID(raw, "employee id")
	return EmployeeID(u), err
}

func ParseUserID(raw string) (UserID, error) {
	u, err := parseUUID(raw, "user id")
	return UserID(u), err
}

func ParsePolicyID(raw string) (PolicyID, error) {
	u, err := parseUUID(raw, "policy id")
	return PolicyID(u), err
}

func ParseLeaveRequestID(raw string) (LeaveRequestID, error) {
	u, err := parseUUID(raw, "leave request id")
	return LeaveRequestID(u), err
}

func ParseEntryID(raw string) (EntryID, error) {
	u, err := parseUUID(raw, "entry id")
	return EntryID(u), err
}

func ParseDepartmentID(raw string) (DepartmentID, error) {
	u, err := parseUUID(raw, "department id")
	return DepartmentID(u), err
}

func ParsePositionID(raw string) (PositionID, error) {
	u, err := parseUUID(raw, "position id")
	return PositionID(u), err
}

func ParseSchoolID(raw string) (SchoolID, error) {
	u, err := parseUUID(raw, "school id")
	return SchoolID(u), err
}

func ParseHolidayID(raw string) (HolidayID, error) {
	u, err := parseUUID(raw, "holiday id")
	return HolidayID(u), err
}

func ParseNotificationID(raw string) (NotificationID, error) {
	u, err := parseUUID(raw, "notification id")
	return NotificationID(u), err
}

func ParseAnnouncementID(raw string) (AnnouncementID, error) {
	u, err := parseUUID(raw, "announcement id")
	return AnnouncementID(u), err
}

func ParseSurveyID(raw string) (SurveyID, error) {
	u, err := parseUUID(raw, "survey id")
	return SurveyID(u), err
}

func ParseBackupID(raw string) (BackupID, error) {
	u, err := parseUUID(raw, "backup id")
	return BackupID(u), err
}
