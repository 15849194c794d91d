package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"AstroChart/internal/domain/models"
	domrepo "AstroChart/internal/domain/repository"
	dsvc "AstroChart/internal/domain/service"
	pkghttp "AstroChart/pkg/http"
	"AstroChart/pkg/queue"
)

const WebhookJobType = "chart.webhook"

// WebhookPayload is queued for every chart request carrying a callback URL.
type WebhookPayload struct {
	CallbackURL string                    `json:"callback_url"`
	Event       models.ChartComputedEvent `json:"event"`
}

// WebhookJob delivers queued chart events to their callback URLs.
type WebhookJob struct {
	notifier dsvc.Notifier
	metrics  domrepo.Metrics
}

func NewWebhookJob(notifier dsvc.Notifier, metrics domrepo.Metrics) *WebhookJob {
	return &WebhookJob{notifier: notifier, metrics: metrics}
}

func (j *WebhookJob) Type() string { return WebhookJobType }

// Handle posts the event. Client errors other than 408 and 429 are not retried.
func (j *WebhookJob) Handle(ctx context.Context, payload json.RawMessage) error {
	p, err := queue.Decode[WebhookPayload](payload)
	if err != nil {
		j.metrics.RecordError("webhook_decode")
		return err
	}
	if p.CallbackURL == "" {
		return queue.Permanent(fmt.Errorf("chart %s: empty callback url", p.Event.ChartID))
	}

	if err := j.notifier.Notify(ctx, p.CallbackURL, p.Event); err != nil {
		j.metrics.RecordError("webhook")
		var se *pkghttp.StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return queue.Permanent(err)
		}
		return err
	}
	return nil
}

var _ queue.Job = (*WebhookJob)(nil)
