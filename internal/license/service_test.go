package license

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewService(data.LicenseModel{DB: db}, nil)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func lockRow(status bool, days, totalPC driver.Value) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"status", "days", "total_pc"}).AddRow(status, days, totalPC)
}

func TestActivate_SetsExpiry(t *testing.T) {
	s, mock := newService(t)
	ip := "10.0.0.5"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status, days, total_pc FROM licenses WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(3)).WillReturnRows(lockRow(true, 30, 2))
	mock.ExpectQuery("SELECT count\\(\\*\\)\\s+FROM license_activations").
		WithArgs(int64(3), fixedNow).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO license_activations").
		WithArgs(int64(7), int64(3), ip, fixedNow.AddDate(0, 0, 30), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reg_date"}).AddRow(11, fixedNow))
	mock.ExpectCommit()

	a, err := s.Activate(context.Background(), ActivationInput{LicenseID: 3, MachineIP: &ip}, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(11), a.ID)
	require.NotNil(t, a.ExpiryDate)
	assert.Equal(t, fixedNow.AddDate(0, 0, 30), *a.ExpiryDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivate_LimitReached(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(3)).WillReturnRows(lockRow(true, nil, 2))
	mock.ExpectQuery("FROM license_activations").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, err := s.Activate(context.Background(), ActivationInput{LicenseID: 3}, 7)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivate_Disabled(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(3)).WillReturnRows(lockRow(false, nil, nil))
	mock.ExpectRollback()

	_, err := s.Activate(context.Background(), ActivationInput{LicenseID: 3}, 7)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestActivate_Unlimited(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(3)).WillReturnRows(lockRow(true, nil, nil))
	mock.ExpectQuery("INSERT INTO license_activations").
		WithArgs(int64(7), int64(3), nil, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reg_date"}).AddRow(12, fixedNow))
	mock.ExpectCommit()

	a, err := s.Activate(context.Background(), ActivationInput{LicenseID: 3}, 7)
	require.NoError(t, err)
	assert.Nil(t, a.ExpiryDate)
}

func TestActivate_MissingLicense(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows([]string{"status", "days", "total_pc"}))
	mock.ExpectRollback()

	_, err := s.Activate(context.Background(), ActivationInput{LicenseID: 99}, 7)
	assert.True(t, apperr.IsNotFound(err))
}

func TestActivate_Validation(t *testing.T) {
	s, _ := newService(t)
	bad := "not-an-ip"

	_, err := s.Activate(context.Background(), ActivationInput{LicenseID: 1, MachineIP: &bad}, 7)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = s.Activate(context.Background(), ActivationInput{LicenseID: 1}, 0)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestCreateAndDelete(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectQuery("INSERT INTO licenses").
		WithArgs(nil, nil, "VMS-PRO", 365, nil, 64, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reg_date"}).AddRow(1, fixedNow))
	mock.ExpectExec("DELETE FROM licenses").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))

	days, cams := 365, 64
	l, err := s.Create(context.Background(), Input{ProductCode: "VMS-PRO", Days: &days, TotalCamera: &cams})
	require.NoError(t, err)
	assert.True(t, l.Status)
	require.NoError(t, s.Delete(context.Background(), l.ID))

	_, err = s.Create(context.Background(), Input{})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}
