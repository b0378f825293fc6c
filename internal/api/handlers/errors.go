package handlers

import (
	"crypto/rand"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memobread/memobread/internal/errors"
	"github.com/memobread/memobread/internal/logger"
)

// ErrorResponse is the body of every 4xx and 5xx response
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a short random identifier for error tracking
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// StatusForError maps an error category to an HTTP status code
func StatusForError(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}

	var ee *errors.EnhancedError
	if !errors.As(err, &ee) {
		return http.StatusInternalServerError
	}
	switch ee.ErrorCategory() {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryIntegration:
		return http.StatusBadGateway
	case errors.CategoryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HandleError logs err and writes an ErrorResponse with the given message and code
func (h *Handlers) HandleError(c echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", c.Request().URL.Path),
		logger.String("method", c.Request().Method),
		logger.String("ip", c.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}

	log := h.log.WithContext(c.Request().Context())
	if code >= http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Debug("API client error", fields...)
	}

	return c.JSON(code, resp)
}

// handleServiceError picks the status from the error category
func (h *Handlers) handleServiceError(c echo.Context, err error, message string) error {
	code := StatusForError(err)
	if code == http.StatusNotFound {
		message = "Recording not found"
	}
	return h.HandleError(c, err, message, code)
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes, body
// limit, rate limit, panics) in the ErrorResponse format.
func (h *Handlers) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := StatusForError(err)
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
		// the message is already the most useful text
		err = he.Internal
	}

	if c.Request().Method == http.MethodHead {
		if nerr := c.NoContent(code); nerr != nil {
			h.log.Warn("failed to write error response", logger.Error(nerr))
		}
		return
	}
	if herr := h.HandleError(c, err, message, code); herr != nil {
		h.log.Warn("failed to write error response", logger.Error(herr))
	}
}
