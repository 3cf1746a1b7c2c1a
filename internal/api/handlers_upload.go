// handlers_upload.go - File intake handlers
package api

import (
	"bytes"
	"encoding/base64"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/transfer-studio/backend/internal/models"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	sessions SessionManager
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(sessions SessionManager) UploadHandler {
	return &UploadHandlerImpl{sessions: sessions}
}

// HandleUploadFile accepts a multipart upload in the "file" field and runs
// intake on it. The previous file, statistics and result are discarded.
func (h *UploadHandlerImpl) HandleUploadFile(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.sessions.Get(id); err != nil {
		return mapError(err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return mapError(models.ErrMissingInput)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	snap, err := h.sessions.Upload(id, file.Filename, file.Header.Get(echo.HeaderContentType), src)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, snap)
}

// HandleUploadBase64 accepts a file as base64 JSON
func (h *UploadHandlerImpl) HandleUploadBase64(c echo.Context) error {
	id := c.Param("id")

	var req uploadFileRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	snap, err := h.sessions.Upload(id, req.Name, req.MIMEType, bytes.NewReader(decoded))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, snap)
}

// HandleGetPreview returns the data URL of an uploaded image
func (h *UploadHandlerImpl) HandleGetPreview(c echo.Context) error {
	snap, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	if snap.File == nil {
		return mapError(models.ErrMissingInput)
	}

	img, ok := snap.File.Content.(models.ImageContent)
	if !ok {
		return NewConflictError("current file has no image preview")
	}
	return c.JSON(http.StatusOK, img)
}

// HandleGetCSV returns the parsed CSV table
func (h *UploadHandlerImpl) HandleGetCSV(c echo.Context) error {
	snap, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	if snap.File == nil {
		return mapError(models.ErrMissingInput)
	}
	if snap.Table == nil {
		return NewConflictError("current file is not a CSV file")
	}
	return c.JSON(http.StatusOK, snap.Table)
}

// Request/Response types

type uploadFileRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	MIMEType string `json:"mimeType" validate:"omitempty,max=127"`
	Data     string `json:"data" validate:"required"` // Base64-encoded content
}
