package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/metime/internal/core/domain"
	"github.com/comitanigiacomo/metime/internal/core/services"
)

type AnalyticsHandler struct {
	svc *services.AnalyticsService
}

func NewAnalyticsHandler(svc *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) RegisterRoutes(r *gin.RouterGroup) {
	analytics := r.Group("/analytics")
	{
		analytics.GET("/overview", h.Overview)
		analytics.GET("/habits/:name/streak", h.Streak)
		analytics.GET("/struggling", h.Struggling)
		analytics.GET("/longest", h.Longest)
		analytics.GET("/periodicity", h.ByPeriodicity)
	}
}

// asOfParam reads the optional as_of date. A nil result lets the service use
// today's date.
func asOfParam(c *gin.Context) (*time.Time, bool) {
	raw := c.Query("as_of")
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of format, expected YYYY-MM-DD"})
		return nil, false
	}
	return &t, true
}

func windowParam(c *gin.Context) (int, bool) {
	raw := c.Query("window")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a positive integer"})
		return 0, false
	}
	return n, true
}

func (h *AnalyticsHandler) Overview(c *gin.Context) {
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}
	window, ok := windowParam(c)
	if !ok {
		return
	}

	report, err := h.svc.Overview(c.Request.Context(), asOf, window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AnalyticsHandler) Streak(c *gin.Context) {
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}

	summary, err := h.svc.Streak(c.Request.Context(), c.Param("name"), asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsHandler) Struggling(c *gin.Context) {
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}
	window, ok := windowParam(c)
	if !ok {
		return
	}
	if window == 0 {
		window = h.svc.Window()
	}

	ranking, err := h.svc.Struggling(c.Request.Context(), asOf, window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"window":     window,
		"struggling": ranking,
	})
}

func (h *AnalyticsHandler) Longest(c *gin.Context) {
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}

	longest, err := h.svc.Longest(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, longest)
}

func (h *AnalyticsHandler) ByPeriodicity(c *gin.Context) {
	groups, err := h.svc.ByPeriodicity(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}
