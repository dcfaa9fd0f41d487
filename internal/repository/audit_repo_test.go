package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation_Success(t *testing.T) {
	db, mock, gdb := setupMockDB(t)
	defer db.Close()
	repo := NewAuditRepo(gdb)

	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO `audit_logs`").
		WithArgs("update_status", "p1 -> called", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.RecordOperation(context.Background(), "update_status", "p1 -> called", at)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOperation_Error(t *testing.T) {
	db, mock, gdb := setupMockDB(t)
	defer db.Close()
	repo := NewAuditRepo(gdb)

	mock.ExpectExec("INSERT INTO `audit_logs`").
		WillReturnError(errors.New("disk full"))

	err := repo.RecordOperation(context.Background(), "check_in", "Ann", time.Now().UTC())

	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentAudit_Success(t *testing.T) {
	db, mock, gdb := setupMockDB(t)
	defer db.Close()
	repo := NewAuditRepo(gdb)

	newer := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "action", "details", "created_at"}).
		AddRow(2, "update_status", "p1 -> called", newer).
		AddRow(1, "check_in", "Ann", newer.Add(-time.Minute))

	mock.ExpectQuery("SELECT \\* FROM `audit_logs` ORDER BY created_at DESC,id DESC LIMIT").
		WillReturnRows(rows)

	entries, err := repo.ListRecent(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint(2), entries[0].ID)
	assert.Equal(t, "update_status", entries[0].Action)
	assert.Equal(t, "Ann", entries[1].Details)
	require.NoError(t, mock.ExpectationsWereMet())
}
