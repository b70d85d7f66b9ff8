package api

import (
	models "StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/usecase"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RecommendationsHandler serves the stored-signal read API.
type RecommendationsHandler struct {
	logger      *xlogger.Logger
	signals     domrepo.SignalStore
	performance *usecase.PerformanceAnalyzer
}

func NewRecommendationsHandler(logger *xlogger.Logger, signals domrepo.SignalStore, performance *usecase.PerformanceAnalyzer) *RecommendationsHandler {
	return &RecommendationsHandler{logger: logger, signals: signals, performance: performance}
}

func (h *RecommendationsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/recommendations", h.Recommendations)
	g.GET("/performance", h.Performance)
	g.GET("/health", h.Health)
}

// Recommendations returns today's actionable signals, newest first.
func (h *RecommendationsHandler) Recommendations(c echo.Context) error {
	req := &models.RecommendationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.signals.TodayRecommendations(c.Request().Context(), req.MinStrength, req.Limit)
	if err != nil {
		h.logger.Error("recommendations query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("signal query failed").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Performance replays today's recommendations against the intraday
// bars recorded after each signal and reports the win/loss tally.
func (h *RecommendationsHandler) Performance(c echo.Context) error {
	req := &models.PerformanceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.performance.Analyze(c.Request().Context(), req.MinStrength)
	if err != nil {
		h.logger.Error("performance analysis error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("performance analysis failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *RecommendationsHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
