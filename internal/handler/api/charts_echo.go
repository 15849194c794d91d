package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "AstroChart/internal/domain/models"
	domrepo "AstroChart/internal/domain/repository"
	"AstroChart/internal/services/astro"
	"AstroChart/internal/usecase"
	xhttp "AstroChart/pkg/http"
	"AstroChart/pkg/http/middleware"
	xlogger "AstroChart/pkg/logger"
)

// ChartsEchoHandler serves chart, synastry and sky endpoints.
type ChartsEchoHandler struct {
	logger *xlogger.Logger
	charts *usecase.ChartService
}

func NewChartsEchoHandler(logger *xlogger.Logger, charts *usecase.ChartService) *ChartsEchoHandler {
	return &ChartsEchoHandler{logger: logger, charts: charts}
}

func (h *ChartsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/charts", h.CreateChart)
	g.POST("/charts/batch", h.CreateCharts)
	g.GET("/charts", h.RecentCharts)
	g.GET("/charts/:id", h.GetChart)
	g.POST("/synastry", h.Synastry)
	g.GET("/sky", h.Sky)
}

func (h *ChartsEchoHandler) CreateChart(c echo.Context) error {
	req := &models.BirthChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	chart, err := h.charts.Create(c.Request().Context(), req.BirthData(), req.Options(), middleware.GetRequestID(c))
	if err != nil {
		h.logger.Error("create chart error", xlogger.String("request_id", middleware.GetRequestID(c)), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, h.appError(err, chart))
	}
	return xhttp.CreatedResponse(c, chart)
}

func (h *ChartsEchoHandler) CreateCharts(c echo.Context) error {
	req := &models.BatchChartsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	inputs := make([]usecase.ChartInput, len(req.Charts))
	for i, r := range req.Charts {
		inputs[i] = usecase.ChartInput{Birth: r.BirthData(), Options: r.Options()}
	}

	charts, err := h.charts.CreateBatch(c.Request().Context(), inputs, middleware.GetRequestID(c))
	if err != nil {
		h.logger.Error("create charts error", xlogger.String("request_id", middleware.GetRequestID(c)), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, h.batchError(err, charts))
	}
	return xhttp.CreatedResponse(c, charts)
}

func (h *ChartsEchoHandler) GetChart(c echo.Context) error {
	req := &models.ChartIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	chart, err := h.charts.Get(c.Request().Context(), req.ID)
	if err != nil {
		if !errors.Is(err, domrepo.ErrChartNotFound) {
			h.logger.Error("get chart error", xlogger.String("chart_id", req.ID), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, h.appError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400, immutable")
	return xhttp.SuccessResponse(c, chart)
}

func (h *ChartsEchoHandler) RecentCharts(c echo.Context) error {
	req := &models.ListChartsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	rows, err := h.charts.Recent(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("recent charts error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, h.appError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ChartsEchoHandler) Synastry(c echo.Context) error {
	req := &models.SynastryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	res, err := h.charts.Synastry(c.Request().Context(),
		req.First.BirthData(), req.Second.BirthData(),
		req.First.Options(), req.Second.Options(), req.Options(),
		middleware.GetRequestID(c))
	if err != nil {
		h.logger.Error("synastry error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, h.appError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartsEchoHandler) Sky(c echo.Context) error {
	req := &models.SkyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	var at time.Time
	if req.At != "" {
		t, ok := xhttp.ParseTime(req.At)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.InvalidFieldError("at", "at must be RFC3339 or unix seconds"))
		}
		at = t
	}

	snap, err := h.charts.Sky(c.Request().Context(), at, req.Latitude, req.Longitude)
	if err != nil {
		h.logger.Error("sky error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, h.appError(err))
	}
	if req.At == "" {
		c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	}
	return xhttp.SuccessResponse(c, snap)
}

// appError maps usecase errors to HTTP errors.
func (h *ChartsEchoHandler) appError(err error, charts ...*models.BirthChartData) error {
	return h.mapError(err, false, charts)
}

// batchError is appError for batches: undelivered charts are listed under chart_ids.
func (h *ChartsEchoHandler) batchError(err error, charts []*models.BirthChartData) error {
	return h.mapError(err, true, charts)
}

func (h *ChartsEchoHandler) mapError(err error, batch bool, charts []*models.BirthChartData) error {
	var ie *astro.InputError
	switch {
	case errors.As(err, &ie):
		return xhttp.InvalidFieldError(ie.Field, ie.Error()).WithError(err)
	case errors.Is(err, domrepo.ErrChartNotFound):
		return xhttp.NotFoundErrorf("chart not found").WithError(err)
	case errors.Is(err, usecase.ErrStoreDisabled):
		return xhttp.UnavailableError("chart history requires the clickhouse backend").WithError(err)
	case errors.Is(err, usecase.ErrDelivery):
		appErr := xhttp.UnavailableError("chart computed but could not be delivered").WithError(err)
		switch {
		case !batch && len(charts) == 1 && charts[0] != nil:
			appErr.WithParam("chart_id", charts[0].ID)
		case batch:
			ids := make([]string, 0, len(charts))
			for _, ch := range charts {
				if ch != nil {
					ids = append(ids, ch.ID)
				}
			}
			appErr.WithParam("chart_ids", ids)
		}
		return appErr
	default:
		return err
	}
}

// health check status per dependency
type HealthHandler struct {
	checks map[string]func(ctx context.Context) error
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{checks: map[string]func(ctx context.Context) error{}}
}

// AddCheck registers a named dependency probe.
func (h *HealthHandler) AddCheck(name string, check func(ctx context.Context) error) {
	h.checks[name] = check
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

func (h *HealthHandler) Health(c echo.Context) error {
	status := http.StatusOK
	out := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(c.Request().Context()); err != nil {
			out[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		out[name] = "ok"
	}
	return xhttp.DataResponse(c, status, out)
}
