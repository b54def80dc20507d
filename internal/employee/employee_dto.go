package employee

// Create accepts JSON or multipart form fields; a multipart request may also
// carry a "photo" file part.
type CreateEmployeeRequest struct {
	Name           string `json:"name" form:"name" binding:"required"`
	Email          string `json:"email" form:"email" binding:"required,email"`
	Phone          string `json:"phone" form:"phone" binding:"required"`
	AlternatePhone string `json:"alternate_phone" form:"alternate_phone"`
	DateOfBirth    string `json:"date_of_birth" form:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	DateOfJoining  string `json:"date_of_joining" form:"date_of_joining" binding:"omitempty,datetime=2006-01-02"`
	BloodGroup     string `json:"blood_group" form:"blood_group" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Gender         string `json:"gender" form:"gender" binding:"omitempty,oneof=Male Female Other"`
	Experience     string `json:"experience" form:"experience"`
	Designation    string `json:"designation" form:"designation"`
	Address        string `json:"address" form:"address"`
	Photo          string `json:"photo" form:"photo"`
}

// UpdateEmployeeRequest is a partial update: nil fields are left untouched and
// an empty string clears an optional field.
type UpdateEmployeeRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone"`
	AlternatePhone *string `json:"alternate_phone"`
	DateOfBirth    *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	DateOfJoining  *string `json:"date_of_joining" binding:"omitempty,datetime=2006-01-02"`
	BloodGroup     *string `json:"blood_group" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Gender         *string `json:"gender" binding:"omitempty,oneof=Male Female Other"`
	Experience     *string `json:"experience"`
	Designation    *string `json:"designation"`
	Address        *string `json:"address"`
	Photo          *string `json:"photo"`
}

// EmployeeResponse is the only shape an employee leaves the service in; it has
// no password field.
type EmployeeResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	AlternatePhone string `json:"alternate_phone,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	DateOfJoining  string `json:"date_of_joining,omitempty"`
	BloodGroup     string `json:"blood_group,omitempty"`
	Gender         string `json:"gender,omitempty"`
	Experience     string `json:"experience,omitempty"`
	Designation    string `json:"designation,omitempty"`
	Address        string `json:"address,omitempty"`
	Photo          string `json:"photo,omitempty"`
	Registered     bool   `json:"registered"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}
