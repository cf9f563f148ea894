// Package webhook posts a notification to an automation endpoint after a
// visit report was generated.
package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"inside-notes/internal/core"
)

// Notifier POSTs the report event as JSON.  5xx answers and transport
// errors are retried; any non-2xx final answer is an error.
type Notifier struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

func NewNotifier(url string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Notifier{httpClient: client, url: url, logger: logger}
}

// SetRetry changes the retry policy.
func (n *Notifier) SetRetry(count int, wait time.Duration) *Notifier {
	n.httpClient.SetRetryCount(count).SetRetryWaitTime(wait).SetRetryMaxWaitTime(wait)
	return n
}

func (n *Notifier) ReportGenerated(ctx context.Context, ev core.ReportEvent) error {
	n.logger.Info("calling report webhook",
		zap.String("url", n.url),
		zap.String("visit_id", ev.Visit.ID),
		zap.Int("annotations", len(ev.Annotations)),
	)

	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(ev).
		Post(n.url)
	// Failures are logged once by the caller.
	if err != nil {
		return fmt.Errorf("post report webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("report webhook: unexpected status %d", resp.StatusCode())
	}
	return nil
}
