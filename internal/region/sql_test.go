package region

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*SQLTable, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLTable(sqlx.NewDb(db, "mysql")), mock
}

func TestSQLTable_ByPincode(t *testing.T) {
	tbl, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT pincode, district, risk_score, state FROM regional_risk WHERE pincode=?`)).
		WithArgs("411001").
		WillReturnRows(sqlmock.NewRows([]string{"pincode", "district", "risk_score", "state"}).
			AddRow("411001", "Pune", 72, "Maharashtra"))

	rec, ok, err := tbl.ByPincode(ctx, "411001")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Record{Pincode: "411001", District: "Pune", RiskScore: 72, State: "Maharashtra"}, rec)

	mock.ExpectQuery(`SELECT pincode`).WithArgs("999999").
		WillReturnRows(sqlmock.NewRows([]string{"pincode", "district", "risk_score", "state"}))

	_, ok, err = tbl.ByPincode(ctx, "999999")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(`SELECT pincode`).WithArgs("123456").WillReturnError(errors.New("gone"))
	_, _, err = tbl.ByPincode(ctx, "123456")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTable_DistrictRisk(t *testing.T) {
	tbl, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(risk_score) FROM regional_risk`)).
		WithArgs("PUNE").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(72))
	score, ok, err := tbl.DistrictRisk(context.Background(), "pune ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 72, score)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(risk_score)`)).
		WithArgs("ATLANTIS").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	_, ok, err = tbl.DistrictRisk(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTable_Districts(t *testing.T) {
	tbl, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT UPPER(TRIM(district))`)).
		WillReturnRows(sqlmock.NewRows([]string{"d"}).AddRow("PUNE").AddRow("NEW DELHI"))

	names, err := tbl.Districts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"PUNE", "NEW DELHI"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTable_Replace(t *testing.T) {
	tbl, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM regional_risk`)).WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO regional_risk`)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := tbl.Replace(context.Background(), fixture[:2])
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTable_ReplaceRollsBack(t *testing.T) {
	tbl, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM regional_risk`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO regional_risk`).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := tbl.Replace(context.Background(), fixture[:1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
	assert.NoError(t, mock.ExpectationsWereMet())
}
