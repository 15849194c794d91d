package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"AstroChart/internal/domain/models"
	dsvc "AstroChart/internal/domain/service"
	xhttp "AstroChart/pkg/http"
)

const (
	HeaderSignature = "X-Astrochart-Signature"
	HeaderTimestamp = "X-Astrochart-Timestamp"
	HeaderRequestID = "X-Request-ID"
)

// Notifier posts chart events to caller callbacks. With a secret, the body is signed as
// hex(HMAC-SHA256(secret, timestamp + "." + body)).
type Notifier struct {
	client *xhttp.Client
	secret []byte
	now    func() time.Time
}

func New(client *xhttp.Client, secret string) *Notifier {
	return &Notifier{client: client, secret: []byte(secret), now: time.Now}
}

// Notify returns a *xhttp.StatusError for non-2xx answers.
func (n *Notifier) Notify(ctx context.Context, callbackURL string, event models.ChartComputedEvent) error {
	u, err := url.Parse(callbackURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &xhttp.StatusError{Code: 400, Body: fmt.Sprintf("invalid callback url %q", callbackURL)}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if event.RequestID != "" {
		headers[HeaderRequestID] = event.RequestID
	}
	if len(n.secret) > 0 {
		ts := strconv.FormatInt(n.now().Unix(), 10)
		headers[HeaderTimestamp] = ts
		headers[HeaderSignature] = Sign(n.secret, ts, body)
	}

	return n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     callbackURL,
		Headers: headers,
		Body:    body,
	}, nil)
}

// Sign computes the signature header value.
func Sign(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature in constant time.
func Verify(secret []byte, timestamp string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, timestamp, body)), []byte(signature))
}

var _ dsvc.Notifier = (*Notifier)(nil)
