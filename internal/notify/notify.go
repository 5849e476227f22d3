// Package notify sends ntfy push notifications about fetches and
// broadcasts.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/matchcast/internal/fetch"
)

// Notifier is the interface for sending fetch and broadcast notifications.
type Notifier interface {
	SendFetchComplete(ctx context.Context, result *fetch.BatchResult, duration time.Duration) error
	SendFetchFailed(ctx context.Context, result *fetch.BatchResult, duration time.Duration, err error) error
	SendPlaybackFinished(ctx context.Context, match string, steps, viewers int, duration time.Duration) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

// SendFetchComplete sends a success notification.
func (c *Client) SendFetchComplete(ctx context.Context, result *fetch.BatchResult, duration time.Duration) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Replay Fetched: %s", result.Match)
	message := FormatFetchSuccess(result, duration)
	tags := c.config.Tags + ",white_check_mark"

	return c.send(ctx, title, message, tags, c.config.Priority)
}

// SendFetchFailed sends a failure notification.
func (c *Client) SendFetchFailed(ctx context.Context, result *fetch.BatchResult, duration time.Duration, err error) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Replay Fetch Failed: %s", result.Match)
	message := FormatFetchFailure(result, duration, err)
	tags := c.config.Tags + ",x"
	priority := "high" // Override to high priority for failures

	return c.send(ctx, title, message, tags, priority)
}

// SendPlaybackFinished reports that a broadcast reached its final step.
func (c *Client) SendPlaybackFinished(ctx context.Context, match string, steps, viewers int, duration time.Duration) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Broadcast Finished: %s", match)
	message := FormatPlaybackFinished(steps, viewers, duration)
	tags := c.config.Tags + ",checkered_flag"

	return c.send(ctx, title, message, tags, c.config.Priority)
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

func (n *NoopNotifier) SendFetchComplete(_ context.Context, _ *fetch.BatchResult, _ time.Duration) error {
	return nil
}

func (n *NoopNotifier) SendFetchFailed(_ context.Context, _ *fetch.BatchResult, _ time.Duration, _ error) error {
	return nil
}

func (n *NoopNotifier) SendPlaybackFinished(_ context.Context, _ string, _, _ int, _ time.Duration) error {
	return nil
}

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
