package entities

import (
	"fmt"
	"time"

	"depot-hub/constant"
)

// CheckInRecord holds one presence event. Two disjoint identity schemes share the
// table: employee records are keyed by EmployeeID, depot visitor records by the
// (Company, Name, Reason) triple. Kind discriminates; use the constructors below
// instead of filling the struct by hand.
type CheckInRecord struct {
	ID           uint                   `json:"id" gorm:"primaryKey"`
	Kind         constant.RecordKind    `json:"kind" gorm:"type:varchar(20);not null;index"`
	EmployeeID   string                 `json:"employee_id" gorm:"type:varchar(20);index"`
	Company      string                 `json:"company" gorm:"type:varchar(100);not null;default:'Unknown';uniqueIndex:uniq_visitor_identity,where:kind = 'visitor'"`
	Name         string                 `json:"name" gorm:"type:varchar(100);not null;default:'Unknown';uniqueIndex:uniq_visitor_identity,where:kind = 'visitor'"`
	Reason       string                 `json:"reason" gorm:"type:varchar(100);not null;default:'Unknown';uniqueIndex:uniq_visitor_identity,where:kind = 'visitor'"`
	CheckInTime  *time.Time             `json:"check_in_time"`
	CheckOutTime *time.Time             `json:"check_out_time"`
	Status       constant.CheckInStatus `json:"status" gorm:"type:varchar(20);not null;default:'checked-out'"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func (CheckInRecord) TableName() string {
	return "staff_checkinrecord"
}

// NewEmployeeCheckIn builds a checked-in employee record. An empty name gets a
// placeholder derived from the id.
func NewEmployeeCheckIn(employeeID, name string, now time.Time) *CheckInRecord {
	if name == "" {
		name = fmt.Sprintf("Employee %s", employeeID)
	}
	return &CheckInRecord{
		Kind:        constant.RecordKindEmployee,
		EmployeeID:  employeeID,
		Company:     "Unknown",
		Name:        name,
		Reason:      "Unknown",
		CheckInTime: &now,
		Status:      constant.StatusCheckedIn,
	}
}

// NewVisitorCheckIn builds a checked-in depot visitor record.
func NewVisitorCheckIn(company, name, reason string, now time.Time) *CheckInRecord {
	return &CheckInRecord{
		Kind:        constant.RecordKindVisitor,
		Company:     company,
		Name:        name,
		Reason:      reason,
		CheckInTime: &now,
		Status:      constant.StatusCheckedIn,
	}
}
