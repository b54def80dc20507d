package employee

import (
	"strings"
	"time"

	"go-emptrack/internal/events"

	"github.com/google/uuid"
)

var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var Genders = []string{"Male", "Female", "Other"}

const dateLayout = "2006-01-02"

type Employee struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name           string     `gorm:"type:varchar(255);not null"`
	Email          string     `gorm:"type:varchar(255);not null;uniqueIndex:uq_employee_email"`
	PasswordHash   string     `gorm:"type:varchar(255);not null;default:''"`
	Phone          string     `gorm:"type:varchar(50);not null"`
	AlternatePhone string     `gorm:"type:varchar(50)"`
	DateOfBirth    *time.Time `gorm:"type:date"`
	DateOfJoining  *time.Time `gorm:"type:date"`
	BloodGroup     string     `gorm:"type:varchar(3)"`
	Gender         string     `gorm:"type:varchar(10)"`
	Experience     string     `gorm:"type:varchar(100)"`
	Designation    string     `gorm:"type:varchar(150)"`
	Address        string     `gorm:"type:text"`
	Photo          string     `gorm:"type:varchar(500)"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsRegistered is true once the employee has completed self-registration.
func (e Employee) IsRegistered() bool {
	return e.PasswordHash != ""
}

// Snapshot is the credential-free projection published on lifecycle events.
func (e Employee) Snapshot() events.EmployeeSnapshot {
	return events.EmployeeSnapshot{
		ID:            e.ID.String(),
		Name:          e.Name,
		Email:         e.Email,
		Phone:         e.Phone,
		Designation:   e.Designation,
		Gender:        e.Gender,
		BloodGroup:    e.BloodGroup,
		DateOfJoining: formatDate(e.DateOfJoining),
		Photo:         e.Photo,
		Registered:    e.IsRegistered(),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// parseDate maps "" to nil so optional dates can be cleared.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
