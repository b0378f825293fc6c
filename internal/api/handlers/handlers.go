// Package handlers implements the MemoBread JSON API routes.
package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memobread/memobread/internal/datastore"
	"github.com/memobread/memobread/internal/logger"
	"github.com/memobread/memobread/internal/recording"
)

// RecordingService is what the handlers need from the orchestrator
type RecordingService interface {
	Create(ctx context.Context, req *recording.CreateRequest) (datastore.Recording, error)
	List(ctx context.Context) ([]datastore.Recording, error)
	Get(ctx context.Context, id string) (datastore.Recording, error)
	Delete(ctx context.Context, id string) error
	Locations(ctx context.Context) ([]recording.LocationGroup, error)
}

// Handlers serves the recording endpoints
type Handlers struct {
	service RecordingService
	log     logger.Logger
}

// New creates the route handlers
func New(service RecordingService, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.Global().Module("api")
	}
	return &Handlers{service: service, log: log}
}

// Register attaches all routes to e. Collection routes answer with and
// without a trailing slash.
func (h *Handlers) Register(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.POST("/recordings", h.CreateRecording)
	api.POST("/recordings/", h.CreateRecording)
	api.GET("/recordings", h.ListRecordings)
	api.GET("/recordings/", h.ListRecordings)
	api.GET("/recordings/:id", h.GetRecording)
	api.DELETE("/recordings/:id", h.DeleteRecording)
	api.GET("/locations", h.ListLocations)
}

// Health handles GET /healthz
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// CreateRecording handles POST /api/recordings
func (h *Handlers) CreateRecording(c echo.Context) error {
	var body CreateRecordingRequest
	if err := c.Bind(&body); err != nil {
		return h.HandleError(c, err, "Invalid request body", http.StatusBadRequest)
	}

	req, err := body.toCreateRequest()
	if err != nil {
		return h.HandleError(c, err, err.Error(), http.StatusBadRequest)
	}

	rec, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return h.handleServiceError(c, err, "Failed to create recording")
	}
	return c.JSON(http.StatusOK, NewRecordingResponse(&rec))
}

// ListRecordings handles GET /api/recordings
func (h *Handlers) ListRecordings(c echo.Context) error {
	recs, err := h.service.List(c.Request().Context())
	if err != nil {
		return h.handleServiceError(c, err, "Failed to list recordings")
	}

	resp := make([]RecordingResponse, 0, len(recs))
	for i := range recs {
		resp = append(resp, NewRecordingResponse(&recs[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetRecording handles GET /api/recordings/:id
func (h *Handlers) GetRecording(c echo.Context) error {
	rec, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.handleServiceError(c, err, "Failed to get recording")
	}
	return c.JSON(http.StatusOK, NewRecordingResponse(&rec))
}

// DeleteRecording handles DELETE /api/recordings/:id
func (h *Handlers) DeleteRecording(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.handleServiceError(c, err, "Failed to delete recording")
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Recording deleted successfully"})
}

// ListLocations handles GET /api/locations
func (h *Handlers) ListLocations(c echo.Context) error {
	groups, err := h.service.Locations(c.Request().Context())
	if err != nil {
		return h.handleServiceError(c, err, "Failed to list locations")
	}
	if groups == nil {
		groups = []recording.LocationGroup{}
	}
	return c.JSON(http.StatusOK, groups)
}
