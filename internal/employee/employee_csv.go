package employee

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

var rosterCSVHeader = []string{
	"Name", "Email", "Phone", "Alt Phone", "DOB", "DOJ",
	"Blood Group", "Experience", "Gender", "Designation", "Address",
}

// RosterFilename is the download name for an export taken at now.
func RosterFilename(now time.Time) string {
	return fmt.Sprintf("employees_%s.csv", now.Format(dateLayout))
}

// WriteRosterCSV writes one header row and one row per employee. Credentials
// are not part of EmployeeResponse and so never reach the file.
func WriteRosterCSV(w io.Writer, rows []EmployeeResponse) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rosterCSVHeader); err != nil {
		return err
	}
	for _, e := range rows {
		if err := cw.Write([]string{
			e.Name,
			e.Email,
			e.Phone,
			e.AlternatePhone,
			e.DateOfBirth,
			e.DateOfJoining,
			e.BloodGroup,
			e.Experience,
			e.Gender,
			e.Designation,
			e.Address,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
