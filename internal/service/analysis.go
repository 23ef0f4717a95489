package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todaylog/internal/client"
	"todaylog/internal/logger"
	"todaylog/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// solutionThreshold is the minimum diary count before burnout diagnoses and
// activity recommendations are meaningful. Below it the category is forced
// to the NONE sentinel and recommendations are dropped. Evaluated at
// callback time, not request time.
const solutionThreshold = 3

// ApplyOutcome reports what happened to a callback.
type ApplyOutcome int

const (
	// OutcomeSaved means the analysis row was persisted.
	OutcomeSaved ApplyOutcome = iota
	// OutcomeDiaryGone means the diary was deleted while analysis was in
	// flight. An expected race, not a fault.
	OutcomeDiaryGone
)

// AnalysisService applies the AI server's asynchronous callback and derives
// the conditional business outcomes: sentinel override, solution logs,
// recovery medal, pushes.
type AnalysisService struct {
	db   *gorm.DB
	push client.PushSender
}

func NewAnalysisService(db *gorm.DB, push client.PushSender) *AnalysisService {
	return &AnalysisService{db: db, push: push}
}

func (s *AnalysisService) Apply(ctx context.Context, cb model.AnalysisCallback) (ApplyOutcome, error) {
	var diary model.Diary
	if err := s.db.WithContext(ctx).First(&diary, cb.DiaryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("callback for deleted diary", "diary_id", cb.DiaryID)
			return OutcomeDiaryGone, nil
		}
		return 0, fmt.Errorf("query diary: %w", err)
	}

	var diaryCount int64
	if err := s.db.WithContext(ctx).Model(&model.Diary{}).Where("user_id = ?", diary.UserID).Count(&diaryCount).Error; err != nil {
		return 0, fmt.Errorf("count diaries: %w", err)
	}

	// Small samples must not yield a burnout diagnosis. The AI summary is
	// still kept: suppressing the diagnosis and suppressing the message are
	// independent policies.
	category := cb.MBICategory
	if diaryCount < solutionThreshold {
		category = model.MBINone
	}

	analysis := model.EmotionAnalysis{
		DiaryID:        diary.ID,
		EmotionProbs:   datatypes.JSONMap(cb.EmotionProbs),
		PrimaryEmotion: cb.PrimaryEmotion,
		PrimaryScore:   cb.PrimaryScore,
		MBICategory:    category,
		AIMessage:      cb.AIMessage,
		CreatedAt:      time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&analysis).Error; err != nil {
			return fmt.Errorf("insert analysis: %w", err)
		}
		if diaryCount < solutionThreshold {
			if len(cb.Recommendations) > 0 {
				logger.Info("recommendations dropped below threshold",
					"diary_id", diary.ID, "count", len(cb.Recommendations))
			}
			return nil
		}
		for _, rec := range cb.Recommendations {
			sol := model.SolutionLog{
				DiaryID:    diary.ID,
				ActivityID: rec.ActivityID,
				AIMessage:  rec.AIMessage,
				CreatedAt:  time.Now(),
			}
			if err := tx.Create(&sol).Error; err != nil {
				return fmt.Errorf("insert solution: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// Side effects after commit, each independently best-effort.
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, diary.UserID).Error; err != nil {
		logger.Warn("user load for push failed", "user_id", diary.UserID, "err", err)
		return OutcomeSaved, nil
	}

	if user.IsPushEnabled && user.FCMToken != "" {
		s.push.Send(ctx, user.FCMToken, "오늘도", "오늘의 감정 분석이 도착했어요!",
			map[string]string{"diary_id": fmt.Sprint(diary.ID)})
	}

	if medal := s.checkRecoveryMedal(ctx, diary.UserID); medal != nil {
		if user.IsPushEnabled && user.FCMToken != "" {
			s.push.Send(ctx, user.FCMToken, "오늘도", "새로운 메달을 획득했어요: "+medal.MedalName,
				map[string]string{"medal_code": medal.MedalCode})
		}
	}

	return OutcomeSaved, nil
}

// checkRecoveryMedal awards RECOVERY_LIGHT when the user's two most recent
// analyses show a burnout category followed by NORMAL. Strictly the last
// two records, no longer window. Returns the medal only when it was newly
// awarded.
func (s *AnalysisService) checkRecoveryMedal(ctx context.Context, userID int) *model.Medal {
	var latest []model.EmotionAnalysis
	err := s.db.WithContext(ctx).
		Joins("JOIN diaries ON diaries.id = emotion_analysis.diary_id").
		Where("diaries.user_id = ?", userID).
		Order("emotion_analysis.created_at DESC, emotion_analysis.id DESC").
		Limit(2).
		Find(&latest).Error
	if err != nil {
		logger.Warn("medal check query failed", "user_id", userID, "err", err)
		return nil
	}
	if len(latest) < 2 {
		return nil
	}

	current, previous := latest[0], latest[1]
	if current.MBICategory != model.MBINormal || !isBurnout(previous.MBICategory) {
		return nil
	}

	var medal model.Medal
	if err := s.db.WithContext(ctx).Where("medal_code = ?", model.MedalRecovery).First(&medal).Error; err != nil {
		logger.Warn("recovery medal not seeded", "err", err)
		return nil
	}

	var held int64
	if err := s.db.WithContext(ctx).Model(&model.Achievement{}).
		Where("user_id = ? AND medal_id = ?", userID, medal.ID).
		Count(&held).Error; err != nil || held > 0 {
		return nil
	}

	ach := model.Achievement{UserID: userID, MedalID: medal.ID, EarnedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(&ach).Error; err != nil {
		// Duplicate award under a concurrent callback is a benign no-op,
		// the unique constraint already holds the invariant.
		logger.Info("medal award skipped", "user_id", userID, "err", err)
		return nil
	}
	logger.Info("recovery medal awarded", "user_id", userID)
	return &medal
}

func isBurnout(category string) bool {
	for _, b := range model.BurnoutStates {
		if category == b {
			return true
		}
	}
	return false
}
