package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todaylog/internal/apperr"
	"todaylog/internal/model"

	"gorm.io/gorm"
)

// SolutionService mutates the user-facing flags on recommended activities
// and records analysis feedback ratings.
type SolutionService struct{ db *gorm.DB }

func NewSolutionService(db *gorm.DB) *SolutionService { return &SolutionService{db: db} }

// UpdateFlags sets the selection/completion flags the user supplied.
// Ownership runs through the diary the solution hangs off.
func (s *SolutionService) UpdateFlags(ctx context.Context, logID, userID int, req model.SolutionUpdateRequest) (*model.SolutionLog, error) {
	var sol model.SolutionLog
	if err := s.db.WithContext(ctx).First(&sol, logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("solution %d: %w", logID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("query solution: %w", err)
	}

	if err := s.authorize(ctx, sol.DiaryID, userID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.IsSelected != nil {
		updates["is_selected"] = *req.IsSelected
	}
	if req.IsCompleted != nil {
		updates["is_completed"] = *req.IsCompleted
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&sol).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update solution: %w", err)
		}
	}
	return &sol, nil
}

// SubmitFeedback upserts the single rating row a diary can carry. Rated
// rows are shipped to the AI server later by the feedback sweep.
func (s *SolutionService) SubmitFeedback(ctx context.Context, diaryID, userID int, req model.FeedbackRequest) (*model.DiaryFeedback, error) {
	if err := s.authorize(ctx, diaryID, userID); err != nil {
		return nil, err
	}

	var fb model.DiaryFeedback
	err := s.db.WithContext(ctx).Where("diary_id = ?", diaryID).First(&fb).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fb = model.DiaryFeedback{
			DiaryID:           diaryID,
			AIMessageRating:   req.AIMessageRating,
			MBICategoryRating: req.MBICategoryRating,
			CreatedAt:         time.Now(),
		}
		if err := s.db.WithContext(ctx).Create(&fb).Error; err != nil {
			return nil, fmt.Errorf("insert feedback: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("query feedback: %w", err)
	default:
		updates := map[string]any{
			"ai_message_rating":   req.AIMessageRating,
			"mbi_category_rating": req.MBICategoryRating,
			"is_sent_to_ai":       false,
		}
		if err := s.db.WithContext(ctx).Model(&fb).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update feedback: %w", err)
		}
		fb.AIMessageRating = req.AIMessageRating
		fb.MBICategoryRating = req.MBICategoryRating
	}
	return &fb, nil
}

func (s *SolutionService) authorize(ctx context.Context, diaryID, userID int) error {
	var diary model.Diary
	if err := s.db.WithContext(ctx).First(&diary, diaryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("diary %d: %w", diaryID, apperr.ErrNotFound)
		}
		return fmt.Errorf("query diary: %w", err)
	}
	if diary.UserID != userID {
		return fmt.Errorf("diary %d: %w", diaryID, apperr.ErrForbidden)
	}
	return nil
}
