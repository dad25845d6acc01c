package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	icache "TrendPulse/internal/service/cache"
	"TrendPulse/internal/usecase"
	xhttp "TrendPulse/pkg/http"
	xlogger "TrendPulse/pkg/logger"
)

const overviewCacheTTL = 5 * time.Second

// SignalsEchoHandler exposes the engine's state over HTTP: emitted signals,
// the live indicator snapshot, verification accuracy and summaries.
type SignalsEchoHandler struct {
	logger   *xlogger.Logger
	store    domrepo.SignalStore
	proc     *usecase.BarProcessor
	verifier *usecase.Verifier
	cache    *icache.TTLCache
}

func NewSignalsEchoHandler(logger *xlogger.Logger, store domrepo.SignalStore, proc *usecase.BarProcessor, verifier *usecase.Verifier) *SignalsEchoHandler {
	return &SignalsEchoHandler{
		logger:   logger,
		store:    store,
		proc:     proc,
		verifier: verifier,
		cache:    icache.NewTTLCache(),
	}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signals", h.Signals)
	g.GET("/signal", h.SignalByID)
	g.GET("/summary", h.Summary)
	g.GET("/state", h.State)
	g.GET("/accuracy", h.Accuracy)
	g.GET("/bars", h.Bars)
}

// Signals returns the newest emitted signals for a symbol.
func (h *SignalsEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	signals, err := h.store.Recent(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.logger.Error("recent signals error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, signals)
}

// SignalByID returns one signal by its id.
func (h *SignalsEchoHandler) SignalByID(c echo.Context) error {
	req := &models.SignalByIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig, err := h.store.Get(c.Request().Context(), req.ID)
	if err != nil {
		h.logger.Error("signal lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if sig == nil {
		return xhttp.NotFoundResponse(c, "signal not found")
	}
	return xhttp.SuccessResponse(c, sig)
}

// Summary renders the human-readable block for one signal.
func (h *SignalsEchoHandler) Summary(c echo.Context) error {
	req := &models.SignalByIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig, err := h.store.Get(c.Request().Context(), req.ID)
	if err != nil {
		h.logger.Error("signal lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if sig == nil {
		return xhttp.NotFoundResponse(c, "signal not found")
	}
	return c.String(http.StatusOK, usecase.SignalSummary(sig))
}

// State returns the symbol's current indicator snapshot, market regime and
// last signal. Responses are cached briefly: the state only changes on bar
// close anyway.
func (h *SignalsEchoHandler) State(c echo.Context) error {
	req := &models.OverviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	key := "overview:" + req.Symbol + ":" + string(tf)
	if v, ok := h.cache.Get(key); ok {
		return xhttp.SuccessResponse(c, v)
	}
	overview := h.proc.Overview(req.Symbol, tf)
	h.cache.Set(key, overview, overviewCacheTTL)
	return xhttp.SuccessResponse(c, overview)
}

// Accuracy returns the verification tracker's per-horizon counters plus the
// most recent resolved records.
func (h *SignalsEchoHandler) Accuracy(c echo.Context) error {
	req := &models.AccuracyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	stats := h.verifier.Stats()
	recent := h.verifier.Recent(20)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": req.Symbol,
		"stats":  stats,
		"recent": recent,
	})
}

// Bars returns the buffered bars for a stream, oldest first.
func (h *SignalsEchoHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	bars := h.proc.Bars(req.Symbol, tf, req.N)
	return xhttp.SuccessResponse(c, bars)
}
