package employee

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, empl *Employee) error
	FindAll(ctx context.Context) ([]Employee, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Employee, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	Update(ctx context.Context, empl *Employee) error
	Delete(ctx context.Context, id uuid.UUID) (*Employee, error)
	// SetPasswordIfEmpty stores hash only while the password column is still
	// empty. It reports false when no unregistered row matched.
	SetPasswordIfEmpty(ctx context.Context, email, hash string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	empl.Email = NormalizeEmail(empl.Email)
	return r.db.WithContext(ctx).Create(empl).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Employee, error) {
	if len(ids) == 0 {
		return []Employee{}, nil
	}
	var empls []Employee
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).First(&empl, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &empl, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&empl).Error
	if err != nil {
		return nil, err
	}
	return &empl, nil
}

// editableColumns are the columns an admin edit may write. password_hash is
// owned by registration and is never among them.
var editableColumns = []string{
	"Name", "Email", "Phone", "AlternatePhone", "DateOfBirth", "DateOfJoining",
	"BloodGroup", "Gender", "Experience", "Designation", "Address", "Photo", "UpdatedAt",
}

// Update writes the editable columns of an existing row. It never inserts:
// gorm.ErrRecordNotFound when the row is gone.
func (r *repository) Update(ctx context.Context, empl *Employee) error {
	empl.Email = NormalizeEmail(empl.Email)
	res := r.db.WithContext(ctx).
		Model(empl).
		Select(editableColumns).
		Updates(empl)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the row and returns what was deleted so callers can clean up
// after it (the photo blob). gorm.ErrRecordNotFound when nothing matched.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (*Employee, error) {
	empl, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res := r.db.WithContext(ctx).Delete(&Employee{}, "id = ?", id)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return empl, nil
}

func (r *repository) SetPasswordIfEmpty(ctx context.Context, email, hash string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("email = ?", NormalizeEmail(email)).
		Where("password_hash IS NULL OR password_hash = ''").
		Update("password_hash", hash)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
