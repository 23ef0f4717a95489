// Package client holds the narrow interfaces to external collaborators:
// the AI analysis server, the push gateway and the object store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AnalysisRequest is the fire-and-forget payload sent when a diary is
// created or its content changes. History carries up to 14 days of the
// user's recent diaries for context.
type AnalysisRequest struct {
	DiaryID int            `json:"diary_id"`
	UserID  int            `json:"user_id"`
	Persona int            `json:"persona"`
	History []HistoryEntry `json:"history"`
}

type HistoryEntry struct {
	DiaryID   int            `json:"diary_id"`
	Content   string         `json:"content,omitempty"`
	Keywords  map[string]any `json:"keywords,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type FeedbackItem struct {
	DiaryID              int    `json:"diary_id"`
	PredictedMBICategory string `json:"predicted_mbi_category"`
	AIMessageRating      int    `json:"ai_message_rating"`
	MBICategoryRating    int    `json:"mbi_category_rating"`
}

type FeedbackBatch struct {
	Feedbacks []FeedbackItem `json:"feedbacks"`
}

// AIClient talks to the external analysis server. Implementations must keep
// failures contained: callers treat every error as non-fatal.
type AIClient interface {
	RequestAnalysis(ctx context.Context, req AnalysisRequest) error
	SendFeedbackBatch(ctx context.Context, batch FeedbackBatch) error
}

type AIService struct {
	baseURL string
	client  *http.Client
}

func NewAIService(baseURL string, timeout time.Duration) *AIService {
	return &AIService{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (s *AIService) RequestAnalysis(ctx context.Context, req AnalysisRequest) error {
	return s.post(ctx, "/analyze", req)
}

func (s *AIService) SendFeedbackBatch(ctx context.Context, batch FeedbackBatch) error {
	return s.post(ctx, "/feedback", batch)
}

func (s *AIService) post(ctx context.Context, path string, body any) error {
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ai call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ai status %d: %s", resp.StatusCode, data)
	}
	// No response body is consumed on success.
	return nil
}
