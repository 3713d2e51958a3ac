// Package transcribe gates and invokes the external transcription service.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oculusre/signalharvest/internal/signal"
)

// ShouldTranscribe is the cheap heuristic gate in front of the transcription
// collaborator: the episode must carry an audio URL and its title or
// description must contain one of the configured keywords, case-insensitive.
// False negatives just mean no transcription; false positives only cost the
// downstream call.
func ShouldTranscribe(ep signal.Episode, keywords []string) bool {
	if ep.AudioURL == "" || len(keywords) == 0 {
		return false
	}
	haystack := strings.ToLower(ep.Title + " " + ep.Description)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// Client talks to the external transcription service over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *zap.Logger
}

var _ signal.Transcriber = (*Client)(nil)

// NewClient creates a reusable transcription client.
func NewClient(endpoint, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 5 * time.Minute},
		logger:   logger,
	}
}

// Transcribe submits an audio URL and returns the transcript text. The key is
// an opaque idempotency handle for the collaborator (the episode URL).
func (c *Client) Transcribe(ctx context.Context, audioURL, key string) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("%w: no endpoint configured", signal.ErrTranscriptionFailed)
	}

	payload, err := json.Marshal(map[string]string{
		"audio_url": audioURL,
		"key":       key,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %w", signal.ErrTranscriptionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/transcribe", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: new request: %w", signal.ErrTranscriptionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", signal.ErrTranscriptionFailed, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close transcription response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %s", signal.ErrTranscriptionFailed, resp.Status)
	}

	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", signal.ErrTranscriptionFailed, err)
	}
	return out.Transcript, nil
}
