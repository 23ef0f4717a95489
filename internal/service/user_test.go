package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"todaylog/internal/apperr"
	"todaylog/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestUpdateInfoNormalizesAlarmTime(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, &fakeStore{})
	user := seedUser(t, db, "alarmfmt@test.io")

	// A non-padded hour must be stored in the exact form the alarm sweep
	// matches on.
	short := "9:00"
	on := true
	updated, err := svc.UpdateInfo(context.Background(), user.ID, model.UserInfoUpdateRequest{
		DailyAlarmTime: &short,
		IsDailyAlarmOn: &on,
	})
	require.NoError(t, err)
	require.Equal(t, "09:00", updated.DailyAlarmTime)

	bad := "25:00"
	_, err = svc.UpdateInfo(context.Background(), user.ID, model.UserInfoUpdateRequest{DailyAlarmTime: &bad})
	require.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestNormalizedAlarmTimeMatchesSweep(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, &fakeStore{})
	sched, push, _ := newScheduler(db)
	user := seedUser(t, db, "alarmsweep@test.io")

	short := "9:00"
	on := true
	days := []int{0, 1, 2, 3, 4, 5, 6}
	_, err := svc.UpdateInfo(context.Background(), user.ID, model.UserInfoUpdateRequest{
		DailyAlarmTime: &short,
		IsDailyAlarmOn: &on,
		DailyAlarmDays: &days,
	})
	require.NoError(t, err)

	sent, err := sched.SweepDailyAlarms(context.Background(), time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Len(t, push.sent, 1)
}

func TestUpdateInfoDisablingPushClearsToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, &fakeStore{})
	user := seedUser(t, db, "mute@test.io")

	off := false
	updated, err := svc.UpdateInfo(context.Background(), user.ID, model.UserInfoUpdateRequest{IsPushEnabled: &off})
	require.NoError(t, err)
	require.False(t, updated.IsPushEnabled)
	require.Empty(t, updated.FCMToken)
}

func TestUpdateInfoAlarmDaysRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, &fakeStore{})
	user := seedUser(t, db, "days@test.io")

	days := []int{0, 2, 4}
	updated, err := svc.UpdateInfo(context.Background(), user.ID, model.UserInfoUpdateRequest{DailyAlarmDays: &days})
	require.NoError(t, err)
	require.Equal(t, datatypes.NewJSONSlice(days), updated.DailyAlarmDays)
}
