package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/testutil"
)

func TestCodeSequenceRepository_LocksRowInsideTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db, 0)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `code_sequences`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `code_sequences` WHERE prefix = \\?.* FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"prefix", "updated_at"}).AddRow("DEP", time.Now()))
	mock.ExpectCommit()

	err := store.RunAtomic(context.Background(), func(repos Repositories) error {
		return repos.Codes.Lock("DEP")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCodeSequenceRepository_LockFailureAbortsAllocation(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db, 0)

	lockWait := errors.New("Lock wait timeout exceeded")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `code_sequences`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").WillReturnError(lockWait)
	mock.ExpectRollback()

	created := false
	err := store.RunAtomic(context.Background(), func(repos Repositories) error {
		if err := repos.Codes.Lock("JOB"); err != nil {
			return err
		}
		created = true
		return nil
	})
	assert.ErrorIs(t, err, lockWait)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCodeSequenceRepository_CreatesRowOnce(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCodeSequenceRepository(db)

	require.NoError(t, repo.Lock("DEP"))
	require.NoError(t, repo.Lock("DEP"))
	require.NoError(t, repo.Lock("JOB"))

	var count int64
	require.NoError(t, db.Model(&models.CodeSequence{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
