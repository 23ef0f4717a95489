package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"todaylog/internal/logger"
)

// PushSender delivers a notification to a device token. It reports success
// as a bool and never fails into the caller: a dead gateway degrades to logs.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) bool
}

type PushGateway struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

func NewPushGateway(endpoint, serverKey string, timeout time.Duration) *PushGateway {
	return &PushGateway{endpoint: endpoint, serverKey: serverKey, client: &http.Client{Timeout: timeout}}
}

func (g *PushGateway) Send(ctx context.Context, token, title, body string, data map[string]string) bool {
	if token == "" {
		return false
	}

	payload, _ := json.Marshal(map[string]any{
		"to": token,
		"notification": map[string]string{
			"title": title,
			"body":  body,
		},
		"data": data,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", g.endpoint, bytes.NewReader(payload))
	if err != nil {
		logger.Error("push build request failed", "err", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+g.serverKey)

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Error("push send failed", "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Warn("push rejected", "status", resp.StatusCode)
		return false
	}
	return true
}
