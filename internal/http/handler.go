package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"plate-service/internal/http/middleware"
	"plate-service/internal/model"
	"plate-service/internal/service"
)

type Handler struct {
	plateService *service.PlateService
	log          zerolog.Logger
}

func NewHandler(plateService *service.PlateService, log zerolog.Logger) *Handler {
	return &Handler{
		plateService: plateService,
		log:          log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := r.Group("/")
	protected.Use(authMiddleware)

	plates := protected.Group("/plates")
	{
		plates.POST("/extract", h.extractPlates)
		plates.POST("/best", h.bestPlate)
		plates.POST("/readings", h.createReading)
		plates.POST("/readings/image", h.createReadingFromImage)
		plates.GET("/readings", h.listReadings)
		plates.GET("/readings/:id", h.getReading)
	}

	vehicles := protected.Group("/vehicles")
	vehicles.Use(middleware.RequireRole(model.RoleAdmin))
	{
		vehicles.GET("/by-plate/:plate", h.getVehicleByPlate)
	}
}

type sourceRequest struct {
	Text             string   `json:"text"`
	SourceLabel      string   `json:"source_label"`
	SourceConfidence *float64 `json:"source_confidence"`
}

type sourcesRequest struct {
	Sources []sourceRequest `json:"sources" binding:"required"`
}

func (r sourcesRequest) inputs() []service.SourceInput {
	inputs := make([]service.SourceInput, 0, len(r.Sources))
	for _, s := range r.Sources {
		inputs = append(inputs, service.SourceInput{
			Text:             s.Text,
			SourceLabel:      s.SourceLabel,
			SourceConfidence: s.SourceConfidence,
		})
	}
	return inputs
}

func (h *Handler) extractPlates(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	candidates, err := h.plateService.Extract(c.Request.Context(), principal, req.Text)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(candidates))
}

func (h *Handler) bestPlate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req sourcesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.plateService.Best(c.Request.Context(), principal, req.inputs())
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("no plate candidate found"))
			return
		}
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) createReading(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req sourcesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	reading, err := h.plateService.CreateReading(c.Request.Context(), principal, req.inputs())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(reading))
}

func (h *Handler) createReadingFromImage(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		ImageBase64 string `json:"image_base64" binding:"required"`
		SourceLabel string `json:"source_label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	reading, err := h.plateService.CreateReadingFromImage(c.Request.Context(), principal, service.ImageInput{
		ImageBase64: req.ImageBase64,
		SourceLabel: req.SourceLabel,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(reading))
}

func (h *Handler) listReadings(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	input := service.ListReadingsInput{
		Plate:  strings.TrimSpace(c.Query("plate")),
		Status: strings.TrimSpace(c.Query("status")),
	}

	if raw := c.Query("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid from"))
			return
		}
		input.From = &t
	}

	if raw := c.Query("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid to"))
			return
		}
		input.To = &t
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid limit"))
			return
		}
		input.Limit = limit
	}

	readings, err := h.plateService.ListReadings(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(readings))
}

func (h *Handler) getReading(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid reading id"))
		return
	}

	reading, err := h.plateService.GetReading(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(reading))
}

func (h *Handler) getVehicleByPlate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	vehicle, err := h.plateService.FindVehicle(c.Request.Context(), principal, c.Param("plate"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUnavailable):
		h.log.Warn().Err(err).Msg("dependency unavailable")
		c.JSON(http.StatusServiceUnavailable, errorResponse(service.ErrUnavailable.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("invalid time format")
}
