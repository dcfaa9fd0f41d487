package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListActiveDepartments_Success(t *testing.T) {
	db, mock, gdb := setupMockDB(t)
	defer db.Close()
	store := NewStore(gdb)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "description", "is_active", "created_at", "updated_at"}).
		AddRow("dep-ct", "CT", nil, true, now, now).
		AddRow("dep-mammo", "Mammo", "Breast imaging", true, now, now)

	mock.ExpectQuery("SELECT \\* FROM `departments` WHERE is_active = \\? ORDER BY name ASC").
		WithArgs(true).
		WillReturnRows(rows)

	departments, err := store.ListDepartments(context.Background())

	require.NoError(t, err)
	require.Len(t, departments, 2)
	assert.Equal(t, "CT", departments[0].Name)
	assert.Equal(t, "Mammo", departments[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDepartment_CreatesMissing(t *testing.T) {
	db, mock, gdb := setupMockDB(t)
	defer db.Close()
	repo := NewDepartmentRepo(gdb)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `departments` WHERE name = \\?").
		WithArgs("TBI").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO `departments`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	department, created, err := repo.EnsureDepartment(context.Background(), "TBI")

	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, department)
	assert.Equal(t, "TBI", department.Name)
	assert.True(t, department.IsActive)
	assert.NotEmpty(t, department.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDepartment_KeepsExisting(t *testing.T) {
	db, mock, gdb := setupMockDB(t)
	defer db.Close()
	repo := NewDepartmentRepo(gdb)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `departments`").
		WithArgs("CT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	department, created, err := repo.EnsureDepartment(context.Background(), "CT")

	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, department)
	require.NoError(t, mock.ExpectationsWereMet())
}
