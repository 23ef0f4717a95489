package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"todaylog/internal/apperr"
	"todaylog/internal/client"
	"todaylog/internal/logger"
	"todaylog/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DiaryService orchestrates diary CRUD. A diary insert and its attendance
// record commit in one transaction; analysis requests go out of band through
// the dispatcher after commit.
type DiaryService struct {
	db             *gorm.DB
	streak         *StreakService
	store          client.ObjectStore
	dispatch       AnalysisDispatcher
	defaultPersona int
}

func NewDiaryService(db *gorm.DB, streak *StreakService, store client.ObjectStore, dispatch AnalysisDispatcher, defaultPersona int) *DiaryService {
	return &DiaryService{db: db, streak: streak, store: store, dispatch: dispatch, defaultPersona: defaultPersona}
}

// UploadedImage is an incoming multipart image, not yet persisted anywhere.
type UploadedImage struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

func (s *DiaryService) Create(ctx context.Context, userID int, req model.DiaryCreateRequest, img *UploadedImage) (*model.Diary, error) {
	if req.Content == "" && len(req.Keywords) == 0 {
		return nil, fmt.Errorf("content or keywords required: %w", apperr.ErrValidation)
	}

	imageURL := ""
	if img != nil {
		url, err := s.store.Upload(ctx, img.Filename, img.ContentType, img.Data)
		if err != nil {
			return nil, fmt.Errorf("upload image: %w", apperr.ErrExternal)
		}
		imageURL = url
	}

	diary := model.Diary{
		UserID:    userID,
		Content:   req.Content,
		Keywords:  datatypes.JSONMap(req.Keywords),
		InputType: req.InputType,
		ImageURL:  imageURL,
		CreatedAt: time.Now().In(s.streak.loc),
	}

	// Diary insert and attendance update are one atomic unit: neither is
	// ever persisted without the other.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&diary).Error; err != nil {
			return fmt.Errorf("insert diary: %w", err)
		}
		if _, err := s.streak.RecordAttendance(ctx, tx, userID, s.streak.Today()); err != nil {
			return fmt.Errorf("record attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		if imageURL != "" {
			if derr := s.store.Delete(ctx, imageURL); derr != nil {
				logger.Warn("orphan image cleanup failed", "url", imageURL, "err", derr)
			}
		}
		return nil, err
	}

	s.scheduleAnalysis(ctx, &diary, req.Persona)
	return &diary, nil
}

// Update applies only the fields the caller supplied. When content or
// keywords change, the stale analysis and its solutions are removed before
// the new fields land, and a fresh analysis is requested afterwards. An
// image-only edit leaves the analysis intact.
func (s *DiaryService) Update(ctx context.Context, diaryID, userID int, req model.DiaryUpdateRequest, img *UploadedImage) (*model.Diary, bool, error) {
	diary, err := s.load(ctx, diaryID, userID)
	if err != nil {
		return nil, false, err
	}

	contentChanged := false
	if req.Content != nil && *req.Content != diary.Content {
		contentChanged = true
	}
	if req.Keywords != nil && !reflect.DeepEqual(map[string]any(diary.Keywords), *req.Keywords) {
		contentChanged = true
	}

	// Two-phase image replacement: upload and commit the new reference
	// first, delete the old object only after the row is safely updated.
	oldImageURL := ""
	if img != nil {
		url, err := s.store.Upload(ctx, img.Filename, img.ContentType, img.Data)
		if err != nil {
			return nil, false, fmt.Errorf("upload image: %w", apperr.ErrExternal)
		}
		oldImageURL = diary.ImageURL
		diary.ImageURL = url
	}

	updates := map[string]any{}
	if req.InputType != nil {
		updates["input_type"] = *req.InputType
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Keywords != nil {
		updates["keywords"] = datatypes.JSONMap(*req.Keywords)
	}
	if img != nil {
		updates["image_url"] = diary.ImageURL
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if contentChanged {
			if err := invalidateAnalysis(tx, diaryID); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&model.Diary{}).Where("id = ?", diaryID).Updates(updates).Error; err != nil {
				return fmt.Errorf("update diary: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		// The new object was uploaded but its reference never committed.
		if img != nil {
			if derr := s.store.Delete(ctx, diary.ImageURL); derr != nil {
				logger.Warn("orphan image cleanup failed", "url", diary.ImageURL, "err", derr)
			}
		}
		return nil, false, err
	}

	if oldImageURL != "" {
		if derr := s.store.Delete(ctx, oldImageURL); derr != nil {
			logger.Warn("old image delete failed", "url", oldImageURL, "err", derr)
		}
	}

	if req.Content != nil {
		diary.Content = *req.Content
	}
	if req.Keywords != nil {
		diary.Keywords = datatypes.JSONMap(*req.Keywords)
	}
	if req.InputType != nil {
		diary.InputType = *req.InputType
	}

	if contentChanged {
		s.scheduleAnalysis(ctx, diary, req.Persona)
	}
	return diary, contentChanged, nil
}

func (s *DiaryService) Delete(ctx context.Context, diaryID, userID int) error {
	diary, err := s.load(ctx, diaryID, userID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := invalidateAnalysis(tx, diaryID); err != nil {
			return err
		}
		if err := tx.Where("diary_id = ?", diaryID).Delete(&model.DiaryFeedback{}).Error; err != nil {
			return fmt.Errorf("delete feedback: %w", err)
		}
		if err := tx.Delete(&model.Diary{}, diaryID).Error; err != nil {
			return fmt.Errorf("delete diary: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if diary.ImageURL != "" {
		if derr := s.store.Delete(ctx, diary.ImageURL); derr != nil {
			logger.Warn("image delete failed", "url", diary.ImageURL, "err", derr)
		}
	}
	return nil
}

func (s *DiaryService) Get(ctx context.Context, diaryID, userID int) (*model.DiaryRead, error) {
	diary, err := s.load(ctx, diaryID, userID)
	if err != nil {
		return nil, err
	}

	read := &model.DiaryRead{Diary: *diary, SolutionLogs: []model.SolutionLogRead{}}

	var analysis model.EmotionAnalysis
	err = s.db.WithContext(ctx).Where("diary_id = ?", diaryID).First(&analysis).Error
	if err == nil {
		read.EmotionAnalysis = &analysis
		read.IsAnalyzed = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("query analysis: %w", err)
	}

	var logs []model.SolutionLog
	if err := s.db.WithContext(ctx).Where("diary_id = ?", diaryID).Order("id").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("query solutions: %w", err)
	}
	for _, l := range logs {
		var act model.Activity
		content := ""
		if err := s.db.WithContext(ctx).First(&act, l.ActivityID).Error; err == nil {
			content = act.ActContent
		}
		read.SolutionLogs = append(read.SolutionLogs, model.SolutionLogRead{
			LogID:       l.ID,
			ActivityID:  l.ActivityID,
			ActContent:  content,
			IsSelected:  l.IsSelected,
			IsCompleted: l.IsCompleted,
		})
	}
	return read, nil
}

// List returns the user's diaries newest-first. year==0 means no year
// filter; year with month narrows to that calendar month. A month without a
// year is rejected rather than silently guessed.
func (s *DiaryService) List(ctx context.Context, userID, year, month, offset, limit int) ([]model.Diary, error) {
	if month != 0 && year == 0 {
		return nil, fmt.Errorf("month filter requires year: %w", apperr.ErrValidation)
	}
	if limit <= 0 {
		limit = 10
	}

	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if year != 0 {
		// Month windows follow the same civil timezone the diaries are
		// stamped in, so a near-midnight entry lists under its own day.
		start := time.Date(year, 1, 1, 0, 0, 0, 0, s.streak.loc)
		end := start.AddDate(1, 0, 0)
		if month != 0 {
			start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.streak.loc)
			end = start.AddDate(0, 1, 0)
		}
		q = q.Where("created_at >= ? AND created_at < ?", start, end)
	}

	var diaries []model.Diary
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&diaries).Error; err != nil {
		return nil, fmt.Errorf("list diaries: %w", err)
	}
	return diaries, nil
}

func (s *DiaryService) load(ctx context.Context, diaryID, userID int) (*model.Diary, error) {
	var diary model.Diary
	if err := s.db.WithContext(ctx).First(&diary, diaryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("diary %d: %w", diaryID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("query diary: %w", err)
	}
	if diary.UserID != userID {
		return nil, fmt.Errorf("diary %d: %w", diaryID, apperr.ErrForbidden)
	}
	return &diary, nil
}

// scheduleAnalysis resolves the persona (request override, then user
// default, then configured fallback) and hands the job to the dispatcher.
// Never fails the calling operation.
func (s *DiaryService) scheduleAnalysis(ctx context.Context, diary *model.Diary, override *int) {
	persona := s.defaultPersona
	if override != nil {
		persona = *override
	} else {
		var user model.User
		if err := s.db.WithContext(ctx).First(&user, diary.UserID).Error; err == nil && user.Persona != nil {
			persona = *user.Persona
		}
	}

	if !s.dispatch.TryEnqueue(AnalysisJob{DiaryID: diary.ID, UserID: diary.UserID, Persona: persona}) {
		logger.Warn("analysis schedule dropped", "diary_id", diary.ID)
	}
}

// invalidateAnalysis removes the diary's analysis row and every solution
// log so stale results are never shown next to new content.
func invalidateAnalysis(tx *gorm.DB, diaryID int) error {
	if err := tx.Where("diary_id = ?", diaryID).Delete(&model.EmotionAnalysis{}).Error; err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if err := tx.Where("diary_id = ?", diaryID).Delete(&model.SolutionLog{}).Error; err != nil {
		return fmt.Errorf("delete solutions: %w", err)
	}
	return nil
}
