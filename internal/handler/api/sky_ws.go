package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	models "AstroChart/internal/domain/models"
	smetrics "AstroChart/internal/service/metrics"
	"AstroChart/internal/usecase"
	xhttp "AstroChart/pkg/http"
	xlogger "AstroChart/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// SkyStreamHandler pushes live sky snapshots over a websocket.
type SkyStreamHandler struct {
	logger   *xlogger.Logger
	feed     *usecase.SkyFeed
	upgrader websocket.Upgrader
}

// NewSkyStreamHandler accepts any origin when origins is empty or contains "*".
func NewSkyStreamHandler(logger *xlogger.Logger, feed *usecase.SkyFeed, origins []string) *SkyStreamHandler {
	return &SkyStreamHandler{
		logger: logger,
		feed:   feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(origins),
		},
	}
}

func (h *SkyStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/sky", h.Stream)
}

func (h *SkyStreamHandler) Stream(c echo.Context) error {
	req := &models.SkyStreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the error response
		smetrics.SkyStreamsRejected.WithLabelValues("upgrade").Inc()
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.readPump(conn, cancel)
	go h.pingLoop(ctx, conn)

	smetrics.SkyStreamsActive.Inc()
	defer smetrics.SkyStreamsActive.Dec()

	err = h.feed.Stream(ctx, req.Latitude, req.Longitude, time.Duration(req.Interval)*time.Second, func(s *models.SkySnapshot) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(s); err != nil {
			return err
		}
		smetrics.SkyFramesSent.Inc()
		return nil
	})

	switch {
	case err == nil:
		h.close(conn, websocket.CloseNormalClosure, "")
	case errors.Is(err, usecase.ErrTooManyStreams):
		smetrics.SkyStreamsRejected.WithLabelValues("capacity").Inc()
		h.close(conn, websocket.CloseTryAgainLater, "too many streams")
	case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure):
		smetrics.SkyStreamsRejected.WithLabelValues("write").Inc()
		h.logger.Warn("sky stream write failed", xlogger.Error(err))
	default:
		smetrics.SkyStreamsRejected.WithLabelValues("error").Inc()
		h.logger.Debug("sky stream ended", xlogger.Error(err))
		h.close(conn, websocket.CloseInternalServerErr, "stream failed")
	}
	return nil
}

// readPump drains client frames so pongs and close frames are processed.
func (h *SkyStreamHandler) readPump(conn *websocket.Conn, done context.CancelFunc) {
	defer done()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// pingLoop keeps the read deadline alive between slow frames. WriteControl may run
// concurrently with WriteJSON.
func (h *SkyStreamHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (h *SkyStreamHandler) close(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
