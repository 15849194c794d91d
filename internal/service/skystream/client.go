package skystream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"AstroChart/internal/domain/models"
)

// Client subscribes to a server's /ws/sky stream.
type Client struct {
	baseURL        string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a client for a ws:// or wss:// base URL such as ws://localhost:8080.
func New(baseURL string, reconnectDelay, pingInterval time.Duration) *Client {
	return &Client{
		baseURL:        baseURL,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// StreamURL builds the subscription URL.
func StreamURL(base string, lat, lon float64, interval time.Duration) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse stream url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws/sky"
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("interval", strconv.Itoa(int(interval/time.Second)))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect opens the stream for lat/lon.
func (c *Client) Connect(ctx context.Context, lat, lon float64, interval time.Duration) error {
	u, err := StreamURL(c.baseURL, lat, lon, interval)
	if err != nil {
		return err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("sky stream connect: %s: %w", resp.Status, err)
		}
		return fmt.Errorf("sky stream connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Read streams snapshots until ctx ends or the connection fails. Both channels are
// closed when reading stops.
func (c *Client) Read(ctx context.Context) (<-chan *models.SkySnapshot, <-chan error) {
	snaps := make(chan *models.SkySnapshot, 16)
	errs := make(chan error, 1)

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if c.pingInterval > 0 && conn != nil {
		go func() {
			ticker := time.NewTicker(c.pingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
						return
					}
				}
			}
		}()
	}

	go func() {
		<-ctx.Done()
		if conn != nil {
			_ = conn.Close()
		}
	}()

	go func() {
		defer close(snaps)
		defer close(errs)
		if conn == nil {
			errs <- fmt.Errorf("sky stream not connected")
			return
		}
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("sky stream read: %w", err)
				}
				return
			}
			var s models.SkySnapshot
			if err := json.Unmarshal(b, &s); err != nil {
				continue
			}
			select {
			case snaps <- &s:
			case <-ctx.Done():
				return
			}
		}
	}()

	return snaps, errs
}

// Reconnect closes the current connection, waits and connects again.
func (c *Client) Reconnect(ctx context.Context, lat, lon float64, interval time.Duration) error {
	_ = c.Close()
	select {
	case <-time.After(c.reconnectDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.Connect(ctx, lat, lon, interval)
}

// Close closes the websocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
