package handler

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/experiment-server/internal/docs"
)

// DocsHandler serves OpenAPI documents byte for byte.
type DocsHandler struct {
	Reader *docs.Reader
	Logger *slog.Logger
}

// NewDocsHandler constructs a DocsHandler and panics if reader is nil.
func NewDocsHandler(reader *docs.Reader, logger *slog.Logger) *DocsHandler {
	if reader == nil {
		panic("nil reader passed to NewDocsHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DocsHandler{Reader: reader, Logger: logger}
}

// Serve returns a handler bound to one file.  Read failures are logged and
// answered with 404 (file missing) or 500 (anything else).
func (h *DocsHandler) Serve(path string) echo.HandlerFunc {
	contentType := docs.ContentType(path)
	return func(c echo.Context) error {
		data, err := h.Reader.Read(c.Request().Context(), path)
		switch {
		case err == nil:
			h.Logger.Info("api document loaded", "path", path, "bytes", len(data))
			return c.Blob(http.StatusOK, contentType, data)
		case errors.Is(err, context.Canceled):
			// client went away, nobody to answer
			h.Logger.Debug("api document read abandoned", "path", path)
			return nil
		case errors.Is(err, fs.ErrNotExist):
			h.Logger.Error("failed to load api document", "path", path, "error", err)
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":   "document_not_found",
				"message": "api document is not available",
			})
		default:
			h.Logger.Error("failed to load api document", "path", path, "error", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":   "document_unavailable",
				"message": "api document could not be read",
			})
		}
	}
}
