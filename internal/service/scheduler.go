package service

import (
	"context"
	"fmt"
	"time"

	"todaylog/internal/client"
	"todaylog/internal/logger"
	"todaylog/internal/model"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Inactivity tiers: each fires on exactly one day of an inactivity episode,
// a user who never returns stops being nagged after the last tier.
var inactivityTiers = map[int]string{
	3:  "INACTIVE_3",
	7:  "INACTIVE_7",
	30: "INACTIVE_30",
}

// Scheduler runs the periodic sweeps on a minute ticker in the fixed civil
// timezone. It holds its own DB handle and never shares a transaction with
// request handling.
type Scheduler struct {
	db      *gorm.DB
	push    client.PushSender
	ai      client.AIClient
	loc     *time.Location
	cadence int
}

func NewScheduler(db *gorm.DB, push client.PushSender, ai client.AIClient, loc *time.Location, cadenceDays int) *Scheduler {
	if cadenceDays <= 0 {
		cadenceDays = 14
	}
	return &Scheduler{db: db, push: push, ai: ai, loc: loc, cadence: cadenceDays}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	logger.Info("scheduler started", "tz", s.loc.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return
		case now := <-ticker.C:
			s.tick(ctx, now.In(s.loc))
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	if n, err := s.SweepDailyAlarms(ctx, now); err != nil {
		logger.Error("alarm sweep failed", "err", err)
	} else if n > 0 {
		logger.Info("alarm sweep done", "sent", n)
	}

	if now.Hour() != 0 || now.Minute() != 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.SweepInactivity(gctx, model.CivilDate(now))
		if err != nil {
			return fmt.Errorf("inactivity sweep: %w", err)
		}
		logger.Info("inactivity sweep done", "sent", n)
		return nil
	})
	g.Go(func() error {
		if err := s.SweepFeedback(gctx, now); err != nil {
			return fmt.Errorf("feedback sweep: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("midnight sweep failed", "err", err)
	}
}

// SweepInactivity notifies users whose days-since-last-attendance equals
// exactly one of the tiers. Exact equality, not >=, so each tier fires once
// per episode.
func (s *Scheduler) SweepInactivity(ctx context.Context, today time.Time) (int, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("is_push_enabled = ? AND fcm_token <> '' AND last_att_date IS NOT NULL", true).
		Find(&users).Error
	if err != nil {
		return 0, fmt.Errorf("query users: %w", err)
	}

	sent := 0
	for _, u := range users {
		diff := daysBetween(*u.LastAttDate, today)
		category, ok := inactivityTiers[diff]
		if !ok {
			continue
		}

		msg, err := s.messageFor(ctx, category)
		if err != nil {
			logger.Warn("push message missing", "category", category)
			continue
		}

		if !s.push.Send(ctx, u.FCMToken, "오늘도", msg.MsgContent, nil) {
			continue
		}

		log := model.NotificationLog{
			UserID:    u.ID,
			AlertType: category,
			Message:   msg.MsgContent,
			SentAt:    time.Now().In(s.loc),
			MsgID:     &msg.ID,
		}
		if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
			logger.Error("notification log failed", "user_id", u.ID, "err", err)
		}
		sent++
	}
	return sent, nil
}

// SweepDailyAlarms sends personal reminders to users whose configured
// time-of-day matches the current minute and whose weekday set contains
// today. Exact minute equality is the contract: a missed tick means a
// skipped reminder, there is no catch-up.
func (s *Scheduler) SweepDailyAlarms(ctx context.Context, now time.Time) (int, error) {
	clock := now.Format(model.ClockLayout)

	var users []model.User
	err := s.db.WithContext(ctx).
		Where("is_daily_alarm_on = ? AND fcm_token <> '' AND daily_alarm_time = ?", true, clock).
		Find(&users).Error
	if err != nil {
		return 0, fmt.Errorf("query alarm users: %w", err)
	}

	weekday := mondayIndex(now.Weekday())
	sent := 0
	for _, u := range users {
		if !containsDay(u.DailyAlarmDays, weekday) {
			continue
		}

		body := u.Nickname + "님, 오늘 하루는 어땠나요?"
		if msg, err := s.messageFor(ctx, "DAILY_ALARM"); err == nil {
			body = msg.MsgContent
		}

		if !s.push.Send(ctx, u.FCMToken, "오늘도", body, nil) {
			continue
		}

		log := model.NotificationLog{
			UserID:    u.ID,
			AlertType: "DAILY_ALARM",
			Message:   body,
			SentAt:    time.Now().In(s.loc),
		}
		if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
			logger.Error("notification log failed", "user_id", u.ID, "err", err)
		}
		sent++
	}
	return sent, nil
}

// SweepFeedback batches unsent analysis-feedback ratings from users whose
// signup age is an exact multiple of the cadence and ships them to the AI
// server. All-or-nothing: rows are marked sent only after the whole batch
// was transmitted, a failed batch stays unsent for the next cycle.
func (s *Scheduler) SweepFeedback(ctx context.Context, now time.Time) error {
	var feedbacks []model.DiaryFeedback
	err := s.db.WithContext(ctx).Where("is_sent_to_ai = ?", false).Find(&feedbacks).Error
	if err != nil {
		return fmt.Errorf("query feedbacks: %w", err)
	}
	if len(feedbacks) == 0 {
		return nil
	}

	batch := client.FeedbackBatch{}
	var ids []int

	for _, fb := range feedbacks {
		var diary model.Diary
		if err := s.db.WithContext(ctx).First(&diary, fb.DiaryID).Error; err != nil {
			continue
		}
		var owner model.User
		if err := s.db.WithContext(ctx).First(&owner, diary.UserID).Error; err != nil {
			continue
		}

		age := daysBetween(owner.CreatedAt.In(s.loc), now.In(s.loc))
		if age <= 0 || age%s.cadence != 0 {
			continue
		}

		predicted := model.MBINone
		var analysis model.EmotionAnalysis
		if err := s.db.WithContext(ctx).Where("diary_id = ?", fb.DiaryID).First(&analysis).Error; err == nil {
			predicted = analysis.MBICategory
		}

		batch.Feedbacks = append(batch.Feedbacks, client.FeedbackItem{
			DiaryID:              fb.DiaryID,
			PredictedMBICategory: predicted,
			AIMessageRating:      fb.AIMessageRating,
			MBICategoryRating:    fb.MBICategoryRating,
		})
		ids = append(ids, fb.ID)
	}

	if len(batch.Feedbacks) == 0 {
		return nil
	}

	if err := s.ai.SendFeedbackBatch(ctx, batch); err != nil {
		return fmt.Errorf("send feedback batch: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&model.DiaryFeedback{}).
		Where("id IN ?", ids).
		Update("is_sent_to_ai", true).Error; err != nil {
		return fmt.Errorf("mark feedbacks sent: %w", err)
	}
	logger.Info("feedback batch sent", "count", len(ids))
	return nil
}

func (s *Scheduler) messageFor(ctx context.Context, category string) (*model.PushMessage, error) {
	var msg model.PushMessage
	if err := s.db.WithContext(ctx).Where("category = ?", category).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// daysBetween counts whole civil days between two instants, comparing
// calendar components so driver locations never skew the count.
func daysBetween(from, to time.Time) int {
	return int(model.CivilDate(to).Sub(model.CivilDate(from)).Hours() / 24)
}

// mondayIndex maps time.Weekday to the stored convention 0=Mon..6=Sun.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
