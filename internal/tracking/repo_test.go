package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return NewRepository(gdb), mock
}

func TestSearchUsesILikeOnPostgres(t *testing.T) {
	repo, mock := newMockRepository(t)
	id, orderID := uuid.New(), uuid.New()
	rows := sqlmock.NewRows([]string{"id", "order_id", "carrier", "tracking_number", "tracking_url", "status", "created_at"}).
		AddRow(id, orderID, "ups", "1Z999AA10123456784", "https://www.ups.com/track?tracknum=1Z999AA10123456784", "pending", time.Now())

	mock.ExpectQuery(`SELECT \* FROM "tracking_records" WHERE tracking_number ILIKE \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(`%1z\_99%`, 50).
		WillReturnRows(rows)

	got, err := repo.Search(context.Background(), " 1z_99 ", 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReportsRowsAffected(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()
	mock.ExpectExec(`DELETE FROM "tracking_records" WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
