package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectStore abstracts the image bucket. Delete is best-effort: callers
// log failures and move on, a dangling object never blocks a diary operation.
type ObjectStore interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// HTTPObjectStore talks to an S3-compatible object gateway over plain
// PUT/DELETE with an API key.
type HTTPObjectStore struct {
	endpoint string
	bucket   string
	apiKey   string
	client   *http.Client
}

func NewHTTPObjectStore(endpoint, bucket, apiKey string) *HTTPObjectStore {
	return &HTTPObjectStore{endpoint: endpoint, bucket: bucket, apiKey: apiKey, client: &http.Client{}}
}

func (s *HTTPObjectStore) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	ext := path.Ext(filename)
	key := fmt.Sprintf("diaries/%s%s", uuid.NewString(), ext)
	url := fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)

	req, err := http.NewRequestWithContext(ctx, "PUT", url, r)
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload status %d", resp.StatusCode)
	}
	return url, nil
}

func (s *HTTPObjectStore) Delete(ctx context.Context, url string) error {
	if url == "" || !strings.HasPrefix(url, s.endpoint) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete status %d", resp.StatusCode)
	}
	return nil
}
