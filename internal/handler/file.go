package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

// FileHandler registers uploaded assets so the cleanup consumer can later
// resolve public URLs back to storage keys.
type FileHandler struct {
	files *repository.FileRepo
}

// NewFileHandler constructs a FileHandler.
func NewFileHandler(files *repository.FileRepo) *FileHandler {
	return &FileHandler{files: files}
}

type registerAssetRequest struct {
	URL        string `json:"url"`
	StorageKey string `json:"storage_key"`
}

// Register handles POST /v1/files.  The upload itself happens against the
// storage provider; this endpoint records the URL to storage-key mapping.
func (h *FileHandler) Register(c echo.Context) error {
	var req registerAssetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "code": "bad_request"})
	}
	req.URL = strings.TrimSpace(req.URL)
	req.StorageKey = strings.TrimSpace(req.StorageKey)
	if req.URL == "" || req.StorageKey == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "url and storage_key are required", "code": "bad_request"})
	}
	asset := &repository.FileAssetRecord{URL: req.URL, StorageKey: req.StorageKey}
	if err := h.files.Create(c.Request().Context(), asset); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          asset.ID,
		"url":         asset.URL,
		"storage_key": asset.StorageKey,
	})
}
