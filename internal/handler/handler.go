package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alex-user-go/rateengine/internal/availability"
	"github.com/alex-user-go/rateengine/internal/inventory"
	"github.com/alex-user-go/rateengine/internal/middleware"
	"github.com/alex-user-go/rateengine/internal/obs"
	"github.com/alex-user-go/rateengine/internal/ratelimit"
)

// Engine is the availability engine the handler serves.
type Engine interface {
	availability.Resolver
	DisplayRates(ctx context.Context, req availability.Request) ([]availability.RateLine, error)
}

// CredentialChecker validates the upstream agent credentials.
type CredentialChecker interface {
	CheckCredentials(ctx context.Context) error
}

// Options tune request handling.
type Options struct {
	CustomRates      availability.CustomRateConfig
	BatchMaxInFlight int
	BatchMaxRequests int
}

// Handler handles HTTP requests.
type Handler struct {
	engine      Engine
	credentials CredentialChecker
	rateLimiter *ratelimit.Limiter
	metrics     *obs.Metrics
	logger      *slog.Logger
	opts        Options
}

// New creates a new Handler. A nil credentials checker skips the credential check.
func New(
	engine Engine,
	credentials CredentialChecker,
	rateLimiter *ratelimit.Limiter,
	metrics *obs.Metrics,
	logger *slog.Logger,
	opts Options,
) *Handler {
	return &Handler{
		engine:      engine,
		credentials: credentials,
		rateLimiter: rateLimiter,
		metrics:     metrics,
		logger:      logger,
		opts:        opts,
	}
}

// Register mounts the handler routes on r.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1", h.limit, h.checkCredentials)
	v1.POST("/availability", h.Resolve)
	v1.POST("/availability/batch", h.ResolveBatch)
	v1.POST("/rates", h.Rates)
}

// AvailabilityRequest is the JSON body of a resolution request.
type AvailabilityRequest struct {
	OptionID                string                         `json:"option_id"`
	StartDate               string                         `json:"start_date"`
	Duration                int                            `json:"duration"`
	Rooms                   []availability.RoomConfig      `json:"rooms"`
	DisplaySupplierCurrency bool                           `json:"display_supplier_currency"`
	CustomRates             *availability.CustomRateConfig `json:"custom_rates,omitempty"`
}

// BatchRequest is the JSON body of a batch resolution request.
type BatchRequest struct {
	Requests    []AvailabilityRequest          `json:"requests"`
	CustomRates *availability.CustomRateConfig `json:"custom_rates,omitempty"`
}

// BatchResponse is the reply to a batch resolution request.
type BatchResponse struct {
	Results    []availability.BookabilityResult `json:"results"`
	DurationMs int64                            `json:"duration_ms"`
}

// RatesResponse is the reply to a display-only rates request.
type RatesResponse struct {
	Rates []availability.RateLine `json:"rates"`
}

// Resolve handles POST /v1/availability.
func (h *Handler) Resolve(c *gin.Context) {
	requestID := middleware.RequestID(c.Request.Context())

	var body AvailabilityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := ParseRequest(body)
	if err != nil {
		h.logger.Debug("invalid request", "request_id", requestID, "error", err)
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.ResolveAvailability(c.Request.Context(), req, h.customRates(body.CustomRates))
	if err != nil {
		h.upstreamFailure(c, requestID, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ResolveBatch handles POST /v1/availability/batch.
func (h *Handler) ResolveBatch(c *gin.Context) {
	start := time.Now()
	requestID := middleware.RequestID(c.Request.Context())

	var body BatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Requests) == 0 {
		writeError(c, http.StatusBadRequest, "requests is required")
		return
	}
	if limit := h.opts.BatchMaxRequests; limit > 0 && len(body.Requests) > limit {
		writeError(c, http.StatusBadRequest, fmt.Sprintf("at most %d requests per batch", limit))
		return
	}

	reqs := make([]availability.Request, 0, len(body.Requests))
	for i, r := range body.Requests {
		req, err := ParseRequest(r)
		if err != nil {
			writeError(c, http.StatusBadRequest, fmt.Sprintf("request %d: %v", i+1, err))
			return
		}
		reqs = append(reqs, req)
	}

	results, err := availability.ResolveAll(c.Request.Context(), h.engine, reqs, h.customRates(body.CustomRates), h.opts.BatchMaxInFlight)
	if err != nil {
		h.upstreamFailure(c, requestID, err)
		return
	}
	c.JSON(http.StatusOK, BatchResponse{
		Results:    results,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// Rates handles POST /v1/rates.
func (h *Handler) Rates(c *gin.Context) {
	requestID := middleware.RequestID(c.Request.Context())

	var body AvailabilityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := ParseRequest(body)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	lines, err := h.engine.DisplayRates(c.Request.Context(), req)
	if err != nil {
		var verr *availability.ValidationError
		if errors.As(err, &verr) {
			writeError(c, http.StatusBadRequest, verr.Reason)
			return
		}
		h.upstreamFailure(c, requestID, err)
		return
	}
	c.JSON(http.StatusOK, RatesResponse{Rates: lines})
}

// limit rejects clients over the per-IP request budget.
func (h *Handler) limit(c *gin.Context) {
	ip := ExtractIP(c.Request)
	if !h.rateLimiter.Allow(ip) {
		h.metrics.IncRateLimited()
		h.logger.Warn("rate limit exceeded",
			"request_id", middleware.RequestID(c.Request.Context()),
			"ip", ip)
		writeError(c, http.StatusTooManyRequests, "rate limit exceeded")
		c.Abort()
		return
	}
	c.Next()
}

func (h *Handler) checkCredentials(c *gin.Context) {
	if h.credentials == nil {
		c.Next()
		return
	}
	if err := h.credentials.CheckCredentials(c.Request.Context()); err != nil {
		requestID := middleware.RequestID(c.Request.Context())
		if errors.Is(err, inventory.ErrInvalidCredentials) {
			h.logger.Error("upstream rejected credentials", "request_id", requestID)
			writeError(c, http.StatusBadGateway, "upstream rejected agent credentials")
		} else {
			h.upstreamFailure(c, requestID, err)
		}
		c.Abort()
		return
	}
	c.Next()
}

func (h *Handler) upstreamFailure(c *gin.Context, requestID string, err error) {
	h.logger.Error("upstream request failed", "request_id", requestID, "error", err)
	if errors.Is(err, context.Canceled) {
		// Client closed the request.
		c.Status(499)
		return
	}
	writeError(c, http.StatusBadGateway, "upstream inventory unavailable")
}

func (h *Handler) customRates(override *availability.CustomRateConfig) availability.CustomRateConfig {
	if override != nil {
		return *override
	}
	return h.opts.CustomRates
}

// ParseRequest validates a request body and converts it to an engine request.
func ParseRequest(body AvailabilityRequest) (availability.Request, error) {
	optionID := strings.TrimSpace(body.OptionID)
	if optionID == "" {
		return availability.Request{}, errors.New("option_id is required")
	}

	startRaw := strings.TrimSpace(body.StartDate)
	if startRaw == "" {
		return availability.Request{}, errors.New("start_date is required")
	}
	start, err := availability.ParseDate(startRaw)
	if err != nil {
		return availability.Request{}, errors.New("start_date must be in YYYY-MM-DD format")
	}

	if body.Duration < 0 {
		return availability.Request{}, errors.New("duration must not be negative")
	}

	if len(body.Rooms) == 0 {
		return availability.Request{}, errors.New("at least one room is required")
	}
	for i, r := range body.Rooms {
		if r.Adults < 0 || r.Children < 0 || r.Infants < 0 {
			return availability.Request{}, fmt.Errorf("room %d: passenger counts must not be negative", i+1)
		}
		if r.Total() == 0 {
			return availability.Request{}, fmt.Errorf("room %d: at least one passenger is required", i+1)
		}
	}

	return availability.Request{
		OptionID:                optionID,
		StartDate:               start,
		Duration:                body.Duration,
		Rooms:                   body.Rooms,
		DisplaySupplierCurrency: body.DisplaySupplierCurrency,
	}, nil
}

// ExtractIP extracts the client IP from the request.
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// writeError writes a JSON error response.
func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
