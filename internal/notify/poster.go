package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/innerlight-hq/distill/internal/anonymizer"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// Poster sends operator notifications to a Slack channel. It only ever posts
// artifact ids and statuses; transcript content never leaves the pipeline.
type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostReviewAlert flags a session whose anonymization could not be verified.
func (p *Poster) PostReviewAlert(ctx context.Context, originalID string, status anonymizer.VerificationStatus) error {
	text := fmt.Sprintf(
		"*Manual review required*\nSession artifact: `%s`\nVerification status: `%s`\nThe original transcript has been preserved.",
		originalID, status,
	)
	return p.post(ctx, text)
}

// PostBatchSummary posts the end-of-batch operator summary.
func (p *Poster) PostBatchSummary(ctx context.Context, text string) error {
	return p.post(ctx, text)
}

func (p *Poster) post(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]any{
		"channel": p.channel,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return fmt.Errorf("slack error: %s", slackResp.Error)
	}

	return nil
}
