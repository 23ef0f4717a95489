package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"todaylog/internal/apperr"
	"todaylog/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	require.NoError(t, err)
	return d
}

func record(t *testing.T, db *gorm.DB, svc *StreakService, userID int, date string) (*model.Attendance, error) {
	t.Helper()
	var att *model.Attendance
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		att, err = svc.RecordAttendance(context.Background(), tx, userID, day(t, date))
		return err
	})
	return att, err
}

func TestRecordAttendanceIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewStreakService(db, time.UTC)
	user := seedUser(t, db, "a@test.io")
	require.Nil(t, user.LastAttDate)

	first, err := record(t, db, svc, user.ID, "2026-08-20")
	require.NoError(t, err)

	second, err := record(t, db, svc, user.ID, "2026-08-20")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&model.Attendance{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.Equal(t, 1, reloaded.CurrentStreak)
}

func TestStreakIncrementsOnConsecutiveDays(t *testing.T) {
	db := newTestDB(t)
	svc := NewStreakService(db, time.UTC)
	user := seedUser(t, db, "b@test.io")

	days := []string{"2026-08-18", "2026-08-19", "2026-08-20"}
	for _, d := range days {
		_, err := record(t, db, svc, user.ID, d)
		require.NoError(t, err)
	}

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.Equal(t, len(days), reloaded.CurrentStreak)
	require.NotNil(t, reloaded.LastAttDate)
	require.Equal(t, "2026-08-20", model.CivilDate(*reloaded.LastAttDate).Format(model.DateLayout))
}

// DATE columns come back from the mysql driver as a midnight time.Time,
// not the civil string that went in. The streak comparison must match on
// calendar day regardless of that representation.
func TestStreakMatchesStoredDateRepresentation(t *testing.T) {
	db := newTestDB(t)
	svc := NewStreakService(db, time.UTC)
	user := seedUser(t, db, "kst@test.io")

	require.NoError(t, db.Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"last_att_date":  time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC),
		"current_streak": 5,
	}).Error)

	_, err := record(t, db, svc, user.ID, "2026-08-20")
	require.NoError(t, err)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.Equal(t, 6, reloaded.CurrentStreak)
}

func TestStreakResetsAfterGap(t *testing.T) {
	db := newTestDB(t)
	svc := NewStreakService(db, time.UTC)
	user := seedUser(t, db, "c@test.io")

	_, err := record(t, db, svc, user.ID, "2026-08-10")
	require.NoError(t, err)
	_, err = record(t, db, svc, user.ID, "2026-08-11")
	require.NoError(t, err)

	// Gap of two days breaks the run.
	_, err = record(t, db, svc, user.ID, "2026-08-14")
	require.NoError(t, err)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.Equal(t, 1, reloaded.CurrentStreak)
}

func TestRecordAttendanceMissingUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewStreakService(db, time.UTC)

	_, err := record(t, db, svc, 9999, "2026-08-20")
	require.Error(t, err)
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestMonthlyAttendanceBounds(t *testing.T) {
	db := newTestDB(t)
	svc := NewStreakService(db, time.UTC)
	user := seedUser(t, db, "d@test.io")

	for _, d := range []string{"2026-07-31", "2026-08-01", "2026-08-15", "2026-08-31", "2026-09-01"} {
		require.NoError(t, db.Create(&model.Attendance{UserID: user.ID, AttDate: day(t, d)}).Error)
	}

	rows, err := svc.MonthlyAttendance(context.Background(), user.ID, 2026, 8)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "2026-08-01", model.CivilDate(rows[0].AttDate).Format(model.DateLayout))
	require.Equal(t, "2026-08-31", model.CivilDate(rows[2].AttDate).Format(model.DateLayout))
}
