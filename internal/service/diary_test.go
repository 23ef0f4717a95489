package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"todaylog/internal/apperr"
	"todaylog/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCreateRequiresContentOrKeywords(t *testing.T) {
	db := newTestDB(t)
	svc, _, _ := newDiaryService(db)
	user := seedUser(t, db, "a@test.io")

	_, err := svc.Create(context.Background(), user.ID, model.DiaryCreateRequest{InputType: "TEXT"}, nil)
	require.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestCreateCommitsDiaryAndAttendanceTogether(t *testing.T) {
	db := newTestDB(t)
	svc, _, dispatch := newDiaryService(db)
	user := seedUser(t, db, "b@test.io")

	diary, err := svc.Create(context.Background(), user.ID, model.DiaryCreateRequest{
		InputType: "TEXT", Content: "좋은 하루였다",
	}, nil)
	require.NoError(t, err)
	require.NotZero(t, diary.ID)

	var attCount int64
	require.NoError(t, db.Model(&model.Attendance{}).Where("user_id = ?", user.ID).Count(&attCount).Error)
	require.EqualValues(t, 1, attCount)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.Equal(t, 1, reloaded.CurrentStreak)

	require.Len(t, dispatch.jobs, 1)
	require.Equal(t, diary.ID, dispatch.jobs[0].DiaryID)
}

func TestCreateRollsBackWhenAttendanceFails(t *testing.T) {
	db := newTestDB(t)
	svc, _, dispatch := newDiaryService(db)

	// No such user: the attendance step fails, so the diary insert must
	// roll back with it.
	_, err := svc.Create(context.Background(), 424242, model.DiaryCreateRequest{
		InputType: "TEXT", Content: "ghost",
	}, nil)
	require.Error(t, err)

	var diaryCount int64
	require.NoError(t, db.Model(&model.Diary{}).Count(&diaryCount).Error)
	require.EqualValues(t, 0, diaryCount)
	require.Empty(t, dispatch.jobs)
}

func TestCreateUsesPersonaPrecedence(t *testing.T) {
	db := newTestDB(t)
	svc, _, dispatch := newDiaryService(db)
	user := seedUser(t, db, "p@test.io")
	persona := 4
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", user.ID).Update("persona", persona).Error)

	_, err := svc.Create(context.Background(), user.ID, model.DiaryCreateRequest{InputType: "TEXT", Content: "x"}, nil)
	require.NoError(t, err)
	require.Equal(t, 4, dispatch.jobs[0].Persona)

	override := 2
	_, err = svc.Create(context.Background(), user.ID, model.DiaryCreateRequest{InputType: "TEXT", Content: "y", Persona: &override}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, dispatch.jobs[1].Persona)
}

func TestUpdateContentInvalidatesAnalysis(t *testing.T) {
	db := newTestDB(t)
	svc, _, dispatch := newDiaryService(db)
	user := seedUser(t, db, "c@test.io")
	diary := seedDiary(t, db, user.ID, "old content", time.Now())
	require.NoError(t, db.Create(&model.EmotionAnalysis{DiaryID: diary.ID, MBICategory: model.MBINormal, CreatedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&model.SolutionLog{DiaryID: diary.ID, ActivityID: 1, CreatedAt: time.Now()}).Error)

	newContent := "new content"
	_, changed, err := svc.Update(context.Background(), diary.ID, user.ID, model.DiaryUpdateRequest{Content: &newContent}, nil)
	require.NoError(t, err)
	require.True(t, changed)

	var analysisCount, solutionCount int64
	require.NoError(t, db.Model(&model.EmotionAnalysis{}).Where("diary_id = ?", diary.ID).Count(&analysisCount).Error)
	require.NoError(t, db.Model(&model.SolutionLog{}).Where("diary_id = ?", diary.ID).Count(&solutionCount).Error)
	require.EqualValues(t, 0, analysisCount)
	require.EqualValues(t, 0, solutionCount)

	require.Len(t, dispatch.jobs, 1)
}

func TestUpdateImageOnlyPreservesAnalysis(t *testing.T) {
	db := newTestDB(t)
	svc, store, dispatch := newDiaryService(db)
	user := seedUser(t, db, "d@test.io")
	diary := seedDiary(t, db, user.ID, "same content", time.Now())
	require.NoError(t, db.Model(&model.Diary{}).Where("id = ?", diary.ID).Update("image_url", "https://store.test/bucket/old.png").Error)
	require.NoError(t, db.Create(&model.EmotionAnalysis{DiaryID: diary.ID, MBICategory: model.MBINormal, CreatedAt: time.Now()}).Error)

	img := &UploadedImage{Filename: "new.png", ContentType: "image/png", Data: strings.NewReader("png")}
	updated, changed, err := svc.Update(context.Background(), diary.ID, user.ID, model.DiaryUpdateRequest{}, img)
	require.NoError(t, err)
	require.False(t, changed)
	require.NotEqual(t, "https://store.test/bucket/old.png", updated.ImageURL)

	// Old object removed only after the new reference committed.
	require.Equal(t, []string{"https://store.test/bucket/old.png"}, store.deleted)

	var analysisCount int64
	require.NoError(t, db.Model(&model.EmotionAnalysis{}).Where("diary_id = ?", diary.ID).Count(&analysisCount).Error)
	require.EqualValues(t, 1, analysisCount)
	require.Empty(t, dispatch.jobs)
}

func TestUpdateCleansUpImageWhenUpdateFails(t *testing.T) {
	db := newTestDB(t)
	svc, store, _ := newDiaryService(db)
	user := seedUser(t, db, "fail@test.io")
	diary := seedDiary(t, db, user.ID, "old", time.Now())

	// Breaking the invalidation target makes the update transaction fail
	// after the new image was already uploaded.
	require.NoError(t, db.Migrator().DropTable(&model.SolutionLog{}))

	content := "new"
	img := &UploadedImage{Filename: "new.png", ContentType: "image/png", Data: strings.NewReader("png")}
	_, _, err := svc.Update(context.Background(), diary.ID, user.ID, model.DiaryUpdateRequest{Content: &content}, img)
	require.Error(t, err)

	require.Equal(t, 1, store.uploads)
	require.Len(t, store.deleted, 1)
	require.Contains(t, store.deleted[0], "new.png")
}

func TestUpdateSameContentIsNotAChange(t *testing.T) {
	db := newTestDB(t)
	svc, _, dispatch := newDiaryService(db)
	user := seedUser(t, db, "e@test.io")
	diary := seedDiary(t, db, user.ID, "unchanged", time.Now())

	same := "unchanged"
	_, changed, err := svc.Update(context.Background(), diary.ID, user.ID, model.DiaryUpdateRequest{Content: &same}, nil)
	require.NoError(t, err)
	require.False(t, changed)
	require.Empty(t, dispatch.jobs)
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	db := newTestDB(t)
	svc, _, _ := newDiaryService(db)
	owner := seedUser(t, db, "owner@test.io")
	other := seedUser(t, db, "other@test.io")
	diary := seedDiary(t, db, owner.ID, "private", time.Now())

	content := "hijack"
	_, _, err := svc.Update(context.Background(), diary.ID, other.ID, model.DiaryUpdateRequest{Content: &content}, nil)
	require.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestDeleteCascadesAndCleansImage(t *testing.T) {
	db := newTestDB(t)
	svc, store, _ := newDiaryService(db)
	user := seedUser(t, db, "f@test.io")
	diary := seedDiary(t, db, user.ID, "to delete", time.Now())
	require.NoError(t, db.Model(&model.Diary{}).Where("id = ?", diary.ID).Update("image_url", "https://store.test/bucket/x.png").Error)
	require.NoError(t, db.Create(&model.EmotionAnalysis{DiaryID: diary.ID, MBICategory: model.MBINone, CreatedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&model.SolutionLog{DiaryID: diary.ID, ActivityID: 1, CreatedAt: time.Now()}).Error)

	require.NoError(t, svc.Delete(context.Background(), diary.ID, user.ID))

	var diaryCount, analysisCount, solutionCount int64
	db.Model(&model.Diary{}).Where("id = ?", diary.ID).Count(&diaryCount)
	db.Model(&model.EmotionAnalysis{}).Where("diary_id = ?", diary.ID).Count(&analysisCount)
	db.Model(&model.SolutionLog{}).Where("diary_id = ?", diary.ID).Count(&solutionCount)
	require.EqualValues(t, 0, diaryCount)
	require.EqualValues(t, 0, analysisCount)
	require.EqualValues(t, 0, solutionCount)
	require.Equal(t, []string{"https://store.test/bucket/x.png"}, store.deleted)
}

func TestListMonthWithoutYearRejected(t *testing.T) {
	db := newTestDB(t)
	svc, _, _ := newDiaryService(db)
	user := seedUser(t, db, "g@test.io")

	_, err := svc.List(context.Background(), user.ID, 0, 5, 0, 10)
	require.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestListFiltersByYearAndMonth(t *testing.T) {
	db := newTestDB(t)
	svc, _, _ := newDiaryService(db)
	user := seedUser(t, db, "h@test.io")

	seedDiary(t, db, user.ID, "jan", time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))
	seedDiary(t, db, user.ID, "aug", time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC))
	seedDiary(t, db, user.ID, "last year", time.Date(2025, 8, 2, 10, 0, 0, 0, time.UTC))

	all, err := svc.List(context.Background(), user.ID, 0, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "aug", all[0].Content) // newest first

	year, err := svc.List(context.Background(), user.ID, 2026, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, year, 2)

	month, err := svc.List(context.Background(), user.ID, 2026, 8, 0, 10)
	require.NoError(t, err)
	require.Len(t, month, 1)
	require.Equal(t, "aug", month[0].Content)
}

// Diaries are stamped in the configured civil timezone so a near-midnight
// entry lists under the same day its attendance was recorded.
func TestCreateStampsCivilTimezone(t *testing.T) {
	db := newTestDB(t)
	loc := time.FixedZone("KST", 9*3600)
	svc := NewDiaryService(db, NewStreakService(db, loc), &fakeStore{}, &fakeDispatch{}, 1)
	user := seedUser(t, db, "tz@test.io")

	diary, err := svc.Create(context.Background(), user.ID, model.DiaryCreateRequest{
		InputType: "TEXT", Content: "늦은 밤의 기록",
	}, nil)
	require.NoError(t, err)

	_, off := diary.CreatedAt.Zone()
	require.Equal(t, 9*3600, off)
}

func TestUpdateKeywordsChangeDetected(t *testing.T) {
	db := newTestDB(t)
	svc, _, dispatch := newDiaryService(db)
	user := seedUser(t, db, "i@test.io")
	diary := seedDiary(t, db, user.ID, "", time.Now())
	require.NoError(t, db.Model(&model.Diary{}).Where("id = ?", diary.ID).
		Update("keywords", datatypes.JSONMap{"mood": "calm"}).Error)

	kw := map[string]any{"mood": "stressed"}
	_, changed, err := svc.Update(context.Background(), diary.ID, user.ID, model.DiaryUpdateRequest{Keywords: &kw}, nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, dispatch.jobs, 1)
}
