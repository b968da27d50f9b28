package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telemetry-service/internal/http/middleware"
	"telemetry-service/internal/model"
	"telemetry-service/internal/service"
)

type Handler struct {
	ingress *service.IngressService
	queries *service.QueryService
	log     zerolog.Logger
}

func NewHandler(
	ingress *service.IngressService,
	queries *service.QueryService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		ingress: ingress,
		queries: queries,
		log:     log,
	}
}

type ingestFunc func(c *gin.Context, payload map[string]interface{}) (*service.IngestResult, error)

func (h *Handler) ingestGps(c *gin.Context) {
	h.ingest(c, func(c *gin.Context, payload map[string]interface{}) (*service.IngestResult, error) {
		return h.ingress.IngestGps(c.Request.Context(), payload)
	})
}

func (h *Handler) ingestFuel(c *gin.Context) {
	h.ingest(c, func(c *gin.Context, payload map[string]interface{}) (*service.IngestResult, error) {
		return h.ingress.IngestFuel(c.Request.Context(), payload)
	})
}

// ingest accepts either a single payload object or an array of them under
// the same endpoint; vendor gateways batch at their own discretion.
func (h *Handler) ingest(c *gin.Context, fn ingestFunc) {
	var raw json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid json"))
		return
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("empty body"))
		return
	}

	if trimmed[0] != '[' {
		var payload map[string]interface{}
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid json object"))
			return
		}
		result, err := fn(c, payload)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "vehicle_id": result.VehicleID})
		return
	}

	var payloads []map[string]interface{}
	if err := json.Unmarshal(trimmed, &payloads); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid json array"))
		return
	}

	type itemResult struct {
		Success   bool       `json:"success"`
		VehicleID *uuid.UUID `json:"vehicle_id,omitempty"`
		Error     string     `json:"error,omitempty"`
	}

	results := make([]itemResult, 0, len(payloads))
	accepted := 0
	for _, payload := range payloads {
		result, err := fn(c, payload)
		if err != nil {
			results = append(results, itemResult{Error: err.Error()})
			continue
		}
		accepted++
		results = append(results, itemResult{Success: true, VehicleID: &result.VehicleID})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"accepted": accepted,
		"rejected": len(payloads) - accepted,
		"results":  results,
	})
}

func (h *Handler) liveVehicles(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var vehicleID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("vehicle_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle_id"))
			return
		}
		vehicleID = &id
	}

	positions, err := h.queries.LivePositions(c.Request.Context(), vehicleID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": positions}))
}

func (h *Handler) listTrips(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts, err := parseTripQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	trips, err := h.queries.TripHistory(c.Request.Context(), opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": trips}))
}

func (h *Handler) listAlerts(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts, err := parseAlertQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	alerts, err := h.queries.UnresolvedAlerts(c.Request.Context(), opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": alerts}))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrDeviceUnassigned):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func parseTripQuery(c *gin.Context) (service.TripHistoryOptions, error) {
	var opts service.TripHistoryOptions

	if raw := strings.TrimSpace(c.Query("vehicle_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return opts, err
		}
		opts.VehicleID = &id
	}
	if statusParam := c.Query("status"); statusParam != "" {
		for _, val := range splitCSV(statusParam) {
			opts.Statuses = append(opts.Statuses, model.TripStatus(strings.ToUpper(val)))
		}
	}
	if materialParam := c.Query("material_type"); materialParam != "" {
		opts.MaterialTypes = splitCSV(materialParam)
	}
	if dateFrom := strings.TrimSpace(c.Query("date_from")); dateFrom != "" {
		ts, err := time.Parse(time.RFC3339, dateFrom)
		if err != nil {
			return opts, err
		}
		opts.DateFrom = &ts
	}
	if dateTo := strings.TrimSpace(c.Query("date_to")); dateTo != "" {
		ts, err := time.Parse(time.RFC3339, dateTo)
		if err != nil {
			return opts, err
		}
		opts.DateTo = &ts
	}
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			opts.Limit = v
		}
	}
	if offset := strings.TrimSpace(c.Query("offset")); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			opts.Offset = v
		}
	}

	return opts, nil
}

func parseAlertQuery(c *gin.Context) (service.AlertListOptions, error) {
	var opts service.AlertListOptions

	if raw := strings.TrimSpace(c.Query("vehicle_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return opts, err
		}
		opts.VehicleID = &id
	}
	if typeParam := c.Query("alert_type"); typeParam != "" {
		for _, val := range splitCSV(typeParam) {
			opts.AlertTypes = append(opts.AlertTypes, model.FuelAlertType(strings.ToUpper(val)))
		}
	}
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			opts.Limit = v
		}
	}
	if offset := strings.TrimSpace(c.Query("offset")); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			opts.Offset = v
		}
	}

	return opts, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
