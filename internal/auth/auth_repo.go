package auth

import (
	"context"
	"time"

	"go-emptrack/internal/employee"

	"gorm.io/gorm"
)

const insertAdminWithinCeiling = `INSERT INTO admins (id, email, password_hash, created_at, updated_at)
SELECT ?, ?, ?, ?, ?
WHERE (SELECT COUNT(*) FROM admins) < ?`

// Postgres resolves untyped select-list parameters as text, so the non-text
// columns need explicit casts there.
const insertAdminWithinCeilingPostgres = `INSERT INTO admins (id, email, password_hash, created_at, updated_at)
SELECT CAST(? AS uuid), ?, ?, CAST(? AS timestamptz), CAST(? AS timestamptz)
WHERE (SELECT COUNT(*) FROM admins) < ?`

//go:generate mockgen -source=auth_repo.go -destination=mock/auth_repo_mock.go -package=mock
type AdminRepository interface {
	Count(ctx context.Context) (int64, error)
	FindByEmail(ctx context.Context, email string) (*Admin, error)
	// CreateWithinCeiling inserts admin only while fewer than ceiling admins
	// exist. It reports false when the ceiling stopped the insert.
	CreateWithinCeiling(ctx context.Context, admin *Admin, ceiling int) (bool, error)
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Admin{}).Count(&count).Error
	return count, err
}

func (r *adminRepository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	var admin Admin
	err := r.db.WithContext(ctx).
		Where("email = ?", employee.NormalizeEmail(email)).
		First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) CreateWithinCeiling(ctx context.Context, admin *Admin, ceiling int) (bool, error) {
	admin.Email = employee.NormalizeEmail(admin.Email)
	now := time.Now().UTC()
	admin.CreatedAt, admin.UpdatedAt = now, now

	var inserted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := insertAdminWithinCeiling
		if tx.Dialector.Name() == "postgres" {
			// Self-conflicting lock: concurrent registrations queue here
			// while plain reads of admins continue.
			if err := tx.Exec("LOCK TABLE admins IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return err
			}
			query = insertAdminWithinCeilingPostgres
		}

		res := tx.Exec(query, admin.ID, admin.Email, admin.PasswordHash, now, now, ceiling)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected == 1
		return nil
	})
	return inserted, err
}
