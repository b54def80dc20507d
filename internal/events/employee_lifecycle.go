package events

import "time"

const EmployeeLifecycleTopic = "emptrack.employee.lifecycle.v1"

const (
	EmployeeCreated    = "employee_created"
	EmployeeUpdated    = "employee_updated"
	EmployeeRegistered = "employee_registered"
	EmployeeDeleted    = "employee_deleted"
)

// EmployeeSnapshot is the searchable projection of an employee record.
// It never carries credentials.
type EmployeeSnapshot struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Designation   string `json:"designation,omitempty"`
	Gender        string `json:"gender,omitempty"`
	BloodGroup    string `json:"blood_group,omitempty"`
	DateOfJoining string `json:"date_of_joining,omitempty"`
	Photo         string `json:"photo,omitempty"`
	Registered    bool   `json:"registered"`
}

type EmployeeLifecycleEvent struct {
	EventType  string            `json:"event_type"`
	RequestID  string            `json:"request_id,omitempty"`
	EmployeeID string            `json:"employee_id"`
	Employee   *EmployeeSnapshot `json:"employee,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
