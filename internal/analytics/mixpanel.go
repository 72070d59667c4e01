// internal/analytics/mixpanel.go
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultMixpanelBaseURL = "https://api.mixpanel.com"

// MixpanelService sends events to the Mixpanel ingestion API.
type MixpanelService struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewMixpanelService(projectToken string) *MixpanelService {
	return &MixpanelService{
		token:   projectToken,
		baseURL: defaultMixpanelBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *MixpanelService) Track(ctx context.Context, distinctID string, event Event, params map[string]string) error {
	properties := map[string]any{
		"token": s.token,
		"time":  time.Now().Unix(),
	}
	if distinctID != "" {
		properties["distinct_id"] = distinctID
	}
	for k, v := range params {
		properties[k] = v
	}

	payload := []map[string]any{{
		"event":      string(event),
		"properties": properties,
	}}

	return s.post(ctx, "/track", payload)
}

func (s *MixpanelService) Identify(ctx context.Context, distinctID string, props map[string]string) error {
	payload := []map[string]any{{
		"$token":       s.token,
		"$distinct_id": distinctID,
		"$set":         props,
	}}

	return s.post(ctx, "/engage", payload)
}

func (s *MixpanelService) Unidentify(ctx context.Context, distinctID string) error {
	payload := []map[string]any{{
		"$token":       s.token,
		"$distinct_id": distinctID,
		"$delete":      "",
	}}

	return s.post(ctx, "/engage", payload)
}

func (s *MixpanelService) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding mixpanel payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building mixpanel request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending mixpanel request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected mixpanel status code: %d, body: %s", resp.StatusCode, respBody)
	}

	return nil
}
