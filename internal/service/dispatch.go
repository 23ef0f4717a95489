package service

import (
	"context"
	"time"

	"todaylog/internal/client"
	"todaylog/internal/logger"
	"todaylog/internal/model"

	"gorm.io/gorm"
)

// AnalysisJob identifies one diary to send to the AI server.
type AnalysisJob struct {
	DiaryID int
	UserID  int
	Persona int
}

// AnalysisDispatcher is the enqueue side of the background analysis queue.
type AnalysisDispatcher interface {
	TryEnqueue(job AnalysisJob) bool
}

// Dispatcher consumes analysis jobs on its own goroutine with its own DB
// handle, never sharing a transaction with the request that enqueued the
// job. Delivery is best-effort: failures are logged and dropped, the AI
// server calls back whenever it finishes.
type Dispatcher struct {
	db      *gorm.DB
	ai      client.AIClient
	jobs    chan AnalysisJob
	timeout time.Duration
}

func NewDispatcher(db *gorm.DB, ai client.AIClient, queueSize int, timeout time.Duration) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{db: db, ai: ai, jobs: make(chan AnalysisJob, queueSize), timeout: timeout}
}

// TryEnqueue never blocks the caller. A full queue drops the job: analysis
// is best-effort and must not back-pressure diary writes.
func (d *Dispatcher) TryEnqueue(job AnalysisJob) bool {
	select {
	case d.jobs <- job:
		return true
	default:
		logger.Warn("analysis queue full, dropping job", "diary_id", job.DiaryID)
		return false
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.jobs:
			d.process(ctx, job)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, job AnalysisJob) {
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req := client.AnalysisRequest{
		DiaryID: job.DiaryID,
		UserID:  job.UserID,
		Persona: job.Persona,
		History: d.recentHistory(reqCtx, job.UserID),
	}
	if err := d.ai.RequestAnalysis(reqCtx, req); err != nil {
		logger.Error("analysis request failed", "diary_id", job.DiaryID, "err", err)
		return
	}
	logger.Info("analysis requested", "diary_id", job.DiaryID, "user_id", job.UserID)
}

// recentHistory collects the user's diaries from the last 14 days for the
// analysis context. A read failure degrades to an empty history rather than
// dropping the request.
func (d *Dispatcher) recentHistory(ctx context.Context, userID int) []client.HistoryEntry {
	since := time.Now().AddDate(0, 0, -14)

	var diaries []model.Diary
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&diaries).Error
	if err != nil {
		logger.Warn("history query failed", "user_id", userID, "err", err)
		return nil
	}

	entries := make([]client.HistoryEntry, 0, len(diaries))
	for _, dy := range diaries {
		entries = append(entries, client.HistoryEntry{
			DiaryID:   dy.ID,
			Content:   dy.Content,
			Keywords:  dy.Keywords,
			CreatedAt: dy.CreatedAt,
		})
	}
	return entries
}
