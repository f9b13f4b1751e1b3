package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuankun/shuankun-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleRepositoryGetDefaultDecodesPeriods(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE user_id = $1 AND is_default = TRUE ORDER BY updated_at DESC LIMIT 1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "is_default", "daily_periods", "created_at", "updated_at"}).
			AddRow("sch-1", "user-1", "基本時間割", true, []byte(`{"1":6,"3":5}`), now, now))

	schedule, err := repo.GetDefault(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, schedule.DailyPeriods.For(3, models.DefaultPeriodsPerDay))
	assert.Equal(t, models.DefaultPeriodsPerDay, schedule.DailyPeriods.For(2, models.DefaultPeriodsPerDay))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateAndReplaceDetails(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules (id, user_id, name, is_default, daily_periods, created_at, updated_at)")).
		WithArgs(sqlmock.AnyArg(), "user-1", "基本時間割", true, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_details WHERE schedule_id = $1")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_details")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 2, 3, "s-rika", nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	schedule := &models.Schedule{UserID: "user-1", Name: "基本時間割", IsDefault: true, DailyPeriods: models.DailyPeriods{1: 6}}
	require.NoError(t, repo.Create(context.Background(), tx, schedule))
	details := []models.ScheduleDetail{{DayOfWeek: 2, Period: 3, SubjectID: "s-rika"}}
	require.NoError(t, repo.ReplaceDetails(context.Background(), tx, schedule.ID, details))
	require.NoError(t, tx.Commit())

	assert.Equal(t, schedule.ID, details[0].ScheduleID)
	require.NoError(t, mock.ExpectationsWereMet())
}
