package sequence

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestNextSequence(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO event_sequence (partition_key, last_sequence, updated_at)`)).
		WithArgs("customer:cust-1").
		WillReturnRows(sqlmock.NewRows([]string{"last_sequence"}).AddRow(int64(4)))

	seq, err := NewRepository(db).NextSequence(context.Background(), "customer:cust-1")
	require.NoError(t, err)
	require.Equal(t, int64(4), seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNextSequence_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO event_sequence`)).
		WithArgs("p").
		WillReturnError(errors.New("db down"))

	_, err = NewRepository(db).NextSequence(context.Background(), "p")
	require.ErrorContains(t, err, "next sequence: db down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNextSequence_EmptyPartition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewRepository(db).NextSequence(context.Background(), "")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT last_sequence FROM event_sequence WHERE partition_key = $1`)).
		WithArgs("seen").
		WillReturnRows(sqlmock.NewRows([]string{"last_sequence"}).AddRow(int64(9)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT last_sequence FROM event_sequence`)).
		WithArgs("unseen").
		WillReturnError(sql.ErrNoRows)

	repo := NewRepository(db)
	seq, err := repo.Current(context.Background(), "seen")
	require.NoError(t, err)
	require.Equal(t, int64(9), seq)

	seq, err = repo.Current(context.Background(), "unseen")
	require.NoError(t, err)
	require.Zero(t, seq)
	require.NoError(t, mock.ExpectationsWereMet())
}
