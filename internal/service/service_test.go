package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"todaylog/internal/client"
	"todaylog/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	u := model.User{
		Email:         email,
		Nickname:      "tester",
		Provider:      "LOCAL",
		IsPushEnabled: true,
		FCMToken:      "tok-" + email,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func seedDiary(t *testing.T, db *gorm.DB, userID int, content string, createdAt time.Time) *model.Diary {
	t.Helper()
	d := model.Diary{UserID: userID, Content: content, InputType: "TEXT", CreatedAt: createdAt}
	require.NoError(t, db.Create(&d).Error)
	return &d
}

func seedRecoveryMedal(t *testing.T, db *gorm.DB) *model.Medal {
	t.Helper()
	m := model.Medal{MedalCode: model.MedalRecovery, MedalName: "recovery", MedalExplain: "back to normal"}
	require.NoError(t, db.Create(&m).Error)
	return &m
}

// fakeStore records uploads/deletes in memory.
type fakeStore struct {
	uploads    int
	deleted    []string
	failUpload bool
}

func (f *fakeStore) Upload(_ context.Context, filename, _ string, _ io.Reader) (string, error) {
	if f.failUpload {
		return "", fmt.Errorf("store down")
	}
	f.uploads++
	return fmt.Sprintf("https://store.test/bucket/%d-%s", f.uploads, filename), nil
}

func (f *fakeStore) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type sentPush struct {
	token, title, body string
}

// fakePush records every delivered notification.
type fakePush struct {
	sent []sentPush
	deny bool
}

func (f *fakePush) Send(_ context.Context, token, title, body string, _ map[string]string) bool {
	if f.deny {
		return false
	}
	f.sent = append(f.sent, sentPush{token: token, title: title, body: body})
	return true
}

// fakeAI records requests; SendFeedbackBatch can be told to fail.
type fakeAI struct {
	analyses     []client.AnalysisRequest
	feedback     []client.FeedbackBatch
	failFeedback bool
}

func (f *fakeAI) RequestAnalysis(_ context.Context, req client.AnalysisRequest) error {
	f.analyses = append(f.analyses, req)
	return nil
}

func (f *fakeAI) SendFeedbackBatch(_ context.Context, batch client.FeedbackBatch) error {
	if f.failFeedback {
		return fmt.Errorf("ai down")
	}
	f.feedback = append(f.feedback, batch)
	return nil
}

// fakeDispatch captures enqueued analysis jobs.
type fakeDispatch struct {
	jobs []AnalysisJob
}

func (f *fakeDispatch) TryEnqueue(job AnalysisJob) bool {
	f.jobs = append(f.jobs, job)
	return true
}

func newDiaryService(db *gorm.DB) (*DiaryService, *fakeStore, *fakeDispatch) {
	store := &fakeStore{}
	dispatch := &fakeDispatch{}
	streak := NewStreakService(db, time.UTC)
	return NewDiaryService(db, streak, store, dispatch, 1), store, dispatch
}
