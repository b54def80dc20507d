package employee_test

import (
	"context"
	"testing"

	"go-emptrack/internal/employee"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRepo(t *testing.T) (employee.Repository, *gorm.DB) {
	t.Helper()
	db := newTxDB(t)
	require.NoError(t, db.AutoMigrate(&employee.Employee{}))
	return employee.NewRepository(db), db
}

func seedEmployee(t *testing.T, repo employee.Repository, email string) *employee.Employee {
	t.Helper()
	e := &employee.Employee{ID: uuid.New(), Name: "Jo", Email: email, Phone: "0812"}
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}

func TestRepository_FindByEmailIsCaseInsensitive(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	seeded := seedEmployee(t, repo, "Jo@Example.COM")

	found, err := repo.FindByEmail(ctx, "  JO@example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, "jo@example.com", found.Email)
}

func TestRepository_UniqueEmail(t *testing.T) {
	repo, _ := newRepo(t)
	seedEmployee(t, repo, "jo@example.com")

	err := repo.Create(context.Background(), &employee.Employee{ID: uuid.New(), Name: "Other", Email: "JO@example.com", Phone: "1"})
	assert.Error(t, err)
}

func TestRepository_SetPasswordIfEmpty(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	seedEmployee(t, repo, "jo@example.com")

	ok, err := repo.SetPasswordIfEmpty(ctx, "JO@example.com", "hash-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetPasswordIfEmpty(ctx, "jo@example.com", "hash-2")
	require.NoError(t, err)
	assert.False(t, ok, "second registration must not overwrite")

	found, err := repo.FindByEmail(ctx, "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", found.PasswordHash)

	ok, err = repo.SetPasswordIfEmpty(ctx, "ghost@example.com", "hash")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_UpdateKeepsPassword(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	seeded := seedEmployee(t, repo, "jo@example.com")

	loaded, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)

	_, err = repo.SetPasswordIfEmpty(ctx, "jo@example.com", "registered-hash")
	require.NoError(t, err)

	// loaded still carries the empty hash read before registration.
	loaded.Designation = "Lead"
	require.NoError(t, repo.Update(ctx, loaded))

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lead", found.Designation)
	assert.Equal(t, "registered-hash", found.PasswordHash)
}

func TestRepository_DeleteAndFindByIDs(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	a := seedEmployee(t, repo, "a@example.com")
	b := seedEmployee(t, repo, "b@example.com")

	found, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	deleted, err := repo.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", deleted.Email)

	_, err = repo.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	none, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_UpdateNeverRecreatesDeletedRow(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	seeded := seedEmployee(t, repo, "jo@example.com")

	loaded, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)

	_, err = repo.Delete(ctx, seeded.ID)
	require.NoError(t, err)

	loaded.Designation = "Lead"
	err = repo.Update(ctx, loaded)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindByID(ctx, seeded.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRepository_UpdateClearsOptionalFields(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	seeded := seedEmployee(t, repo, "jo@example.com")

	loaded, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	loaded.Address = "Old street"
	require.NoError(t, repo.Update(ctx, loaded))

	loaded.Address = ""
	require.NoError(t, repo.Update(ctx, loaded))

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Address)
}
