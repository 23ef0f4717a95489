package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todaylog/internal/apperr"
	"todaylog/internal/client"
	"todaylog/internal/logger"
	"todaylog/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserService covers the profile surface: medals, notification settings,
// persona, account deletion.
type UserService struct {
	db    *gorm.DB
	store client.ObjectStore
}

func NewUserService(db *gorm.DB, store client.ObjectStore) *UserService {
	return &UserService{db: db, store: store}
}

func (s *UserService) Profile(ctx context.Context, userID int) (*model.UserProfileResponse, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	var achievements []model.Achievement
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("earned_at").Find(&achievements).Error; err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}

	resp := &model.UserProfileResponse{User: user, Achievements: []model.MedalInfo{}}
	for _, ach := range achievements {
		var medal model.Medal
		if err := s.db.WithContext(ctx).First(&medal, ach.MedalID).Error; err != nil {
			continue
		}
		resp.Achievements = append(resp.Achievements, model.MedalInfo{
			AchieveID:    ach.ID,
			MedalName:    medal.MedalName,
			MedalExplain: medal.MedalExplain,
			EarnedAt:     ach.EarnedAt,
			IsRead:       ach.IsRead,
		})
		if !ach.IsRead {
			resp.HasUnreadMedals = true
		}
	}
	return resp, nil
}

func (s *UserService) MarkMedalRead(ctx context.Context, userID, achieveID int) error {
	res := s.db.WithContext(ctx).Model(&model.Achievement{}).
		Where("id = ? AND user_id = ?", achieveID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("mark medal read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("achievement %d: %w", achieveID, apperr.ErrNotFound)
	}
	return nil
}

// UpdateInfo applies only the supplied fields. Disabling push also drops
// the stored device token so an opted-out user can never be reached.
func (s *UserService) UpdateInfo(ctx context.Context, userID int, req model.UserInfoUpdateRequest) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	updates := map[string]any{}
	if req.Nickname != nil {
		updates["nickname"] = *req.Nickname
	}
	if req.Persona != nil {
		updates["persona"] = *req.Persona
	}
	if req.IsPushEnabled != nil {
		updates["is_push_enabled"] = *req.IsPushEnabled
		if !*req.IsPushEnabled {
			updates["fcm_token"] = ""
		}
	}
	if req.FCMToken != nil {
		updates["fcm_token"] = *req.FCMToken
	}
	if req.IsDailyAlarmOn != nil {
		updates["is_daily_alarm_on"] = *req.IsDailyAlarmOn
	}
	if req.DailyAlarmTime != nil {
		// The alarm sweep matches on exact "15:04" equality; normalize on
		// the way in so "9:00" cannot slip past it unmatched.
		parsed, err := time.Parse(model.ClockLayout, *req.DailyAlarmTime)
		if err != nil {
			return nil, fmt.Errorf("alarm time %q: %w", *req.DailyAlarmTime, apperr.ErrValidation)
		}
		updates["daily_alarm_time"] = parsed.Format(model.ClockLayout)
	}
	if req.DailyAlarmDays != nil {
		updates["daily_alarm_days"] = datatypes.NewJSONSlice(*req.DailyAlarmDays)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return &user, nil
}

// DeleteAccount removes the user and everything they own. Images are
// cleaned from storage first (best-effort): once the rows are gone the
// URLs are unrecoverable.
func (s *UserService) DeleteAccount(ctx context.Context, userID int) error {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %d: %w", userID, apperr.ErrNotFound)
		}
		return fmt.Errorf("query user: %w", err)
	}

	var diaries []model.Diary
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&diaries).Error; err != nil {
		return fmt.Errorf("query diaries: %w", err)
	}
	for _, d := range diaries {
		if d.ImageURL == "" {
			continue
		}
		if err := s.store.Delete(ctx, d.ImageURL); err != nil {
			logger.Warn("account image cleanup failed", "url", d.ImageURL, "err", err)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		diaryIDs := make([]int, 0, len(diaries))
		for _, d := range diaries {
			diaryIDs = append(diaryIDs, d.ID)
		}
		if len(diaryIDs) > 0 {
			if err := tx.Where("diary_id IN ?", diaryIDs).Delete(&model.EmotionAnalysis{}).Error; err != nil {
				return fmt.Errorf("delete analyses: %w", err)
			}
			if err := tx.Where("diary_id IN ?", diaryIDs).Delete(&model.SolutionLog{}).Error; err != nil {
				return fmt.Errorf("delete solutions: %w", err)
			}
			if err := tx.Where("diary_id IN ?", diaryIDs).Delete(&model.DiaryFeedback{}).Error; err != nil {
				return fmt.Errorf("delete feedbacks: %w", err)
			}
			if err := tx.Where("user_id = ?", userID).Delete(&model.Diary{}).Error; err != nil {
				return fmt.Errorf("delete diaries: %w", err)
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Attendance{}).Error; err != nil {
			return fmt.Errorf("delete attendance: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Achievement{}).Error; err != nil {
			return fmt.Errorf("delete achievements: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.NotificationLog{}).Error; err != nil {
			return fmt.Errorf("delete notification logs: %w", err)
		}
		if err := tx.Delete(&model.User{}, userID).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

// SplashMessage picks a random splash-screen phrase. Falls back to a fixed
// greeting when none are seeded.
func (s *UserService) SplashMessage(ctx context.Context) string {
	var msg model.PushMessage
	err := s.db.WithContext(ctx).
		Where("category = ?", "SPLASH").
		Order(randomOrder(s.db)).
		First(&msg).Error
	if err != nil {
		return "오늘도 당신을 기다렸어요."
	}
	return msg.MsgContent
}

// mysql spells random ordering RAND(), sqlite RANDOM().
func randomOrder(db *gorm.DB) string {
	if db.Dialector.Name() == "mysql" {
		return "RAND()"
	}
	return "RANDOM()"
}
