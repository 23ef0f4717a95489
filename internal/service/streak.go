package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todaylog/internal/apperr"
	"todaylog/internal/logger"
	"todaylog/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakService owns the attendance uniqueness and contiguous-streak
// invariants. Day boundaries are computed in a fixed civil timezone, never
// server-local time.
type StreakService struct {
	db  *gorm.DB
	loc *time.Location
}

func NewStreakService(db *gorm.DB, loc *time.Location) *StreakService {
	return &StreakService{db: db, loc: loc}
}

// Today returns the current civil date in the configured timezone,
// normalized to midnight UTC.
func (s *StreakService) Today() time.Time {
	return model.CivilDate(time.Now().In(s.loc))
}

// RecordAttendance records a check-in for (userID, today) inside the
// caller's transaction tx. It never commits itself: the caller decides the
// transaction boundary so the attendance commits atomically with whatever
// triggered it (the diary insert).
//
// Idempotent: an existing row for the day is returned unchanged and the
// streak is not touched.
func (s *StreakService) RecordAttendance(ctx context.Context, tx *gorm.DB, userID int, today time.Time) (*model.Attendance, error) {
	var existing model.Attendance
	err := tx.WithContext(ctx).
		Where("user_id = ? AND att_date = ?", userID, today).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("query attendance: %w", err)
	}

	// Exclusive row lock on the user serializes concurrent check-ins for
	// the same user until the caller's transaction ends.
	var user model.User
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Referential-integrity corruption: the diary insert referenced
			// a user that no longer exists.
			logger.Error("attendance for vanished user", "user_id", userID)
			return nil, fmt.Errorf("user %d: %w", userID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("lock user: %w", err)
	}

	// Re-check under the lock: a concurrent create may have committed its
	// attendance while we waited for the user row.
	err = tx.WithContext(ctx).
		Where("user_id = ? AND att_date = ?", userID, today).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("recheck attendance: %w", err)
	}

	// Compare calendar days, not raw timestamps: the mysql driver returns
	// DATE columns as time.Time in its configured location.
	streak := 1
	if user.LastAttDate != nil && model.CivilDate(*user.LastAttDate).Equal(today.AddDate(0, 0, -1)) {
		streak = user.CurrentStreak + 1
	}

	updates := map[string]any{"last_att_date": today, "current_streak": streak}
	if err := tx.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}

	att := model.Attendance{UserID: userID, AttDate: today, CreatedAt: time.Now().In(s.loc)}
	if err := tx.WithContext(ctx).Create(&att).Error; err != nil {
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	return &att, nil
}

// MonthlyAttendance lists the user's attendance rows within the calendar
// month, ordered by date. Pure read.
func (s *StreakService) MonthlyAttendance(ctx context.Context, userID, year, month int) ([]model.Attendance, error) {
	start, end := monthBounds(year, month)

	var rows []model.Attendance
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND att_date >= ? AND att_date < ?", userID, start, end).
		Order("att_date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query monthly attendance: %w", err)
	}
	return rows, nil
}

func monthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
