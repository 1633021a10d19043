package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"TapeLens/internal/engine"
)

// ResultsHandler exposes the latest per-instrument analysis over HTTP.
type ResultsHandler struct {
	pipeline *engine.Pipeline
}

func NewResultsHandler(p *engine.Pipeline) *ResultsHandler {
	return &ResultsHandler{pipeline: p}
}

func (h *ResultsHandler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	v1.GET("/instruments", h.listInstruments)
	v1.GET("/results/:instrument", h.getResult)
	e.GET("/healthz", h.health)
}

func (h *ResultsHandler) listInstruments(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"instruments": h.pipeline.Instruments(),
	})
}

func (h *ResultsHandler) getResult(c echo.Context) error {
	instrument := c.Param("instrument")
	res, ok := h.pipeline.Latest(instrument)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "no analysis for instrument " + instrument,
		})
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ResultsHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
