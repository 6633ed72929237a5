package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// InvokeHandler exposes the registry over HTTP
type InvokeHandler struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewInvokeHandler creates a new invoke handler
func NewInvokeHandler(registry *Registry, logger zerolog.Logger) *InvokeHandler {
	return &InvokeHandler{
		registry: registry,
		logger:   logger.With().Str("component", "invoke").Logger(),
	}
}

// Invoke runs the command named in the URL with the request body as arguments
func (h *InvokeHandler) Invoke(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "failed to read request body",
		})
		return
	}
	h.respond(c, c.Param("command"), body)
}

// Scan is a GET alias for scan_directory taking the root from ?path=
func (h *InvokeHandler) Scan(c *gin.Context) {
	args, err := json.Marshal(PathArgs{Path: c.Query("path")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, CmdScanDirectory, args)
}

// ListCommands returns the registered command names
func (h *InvokeHandler) ListCommands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"commands": h.registry.Names(),
	})
}

func (h *InvokeHandler) respond(c *gin.Context, name string, args json.RawMessage) {
	result, err := h.registry.Invoke(c.Request.Context(), name, args)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error().Str("command", name).Err(err).Msg("command failed")
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownCommand), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, ErrBadArgs):
		return http.StatusBadRequest
	case errors.Is(err, os.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
