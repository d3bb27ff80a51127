package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"pptxtrans/internal/service"
)

const maxSheetSize = 10 << 20

type ImportHandler struct {
	service service.ImportService
}

func NewImportHandler(service service.ImportService) *ImportHandler {
	return &ImportHandler{service: service}
}

func (h *ImportHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/jobs/:id/import", h.Import)
	g.POST("/jobs/:id/sheet/sync", h.Sync)
}

// Import rebuilds decks from an uploaded review sheet.
// @Summary Import a reviewed sheet
// @Description Upload a reviewed xlsx or csv sheet and rebuild the decks from it
// @Tags sheets
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Job ID"
// @Param file formData file true "Reviewed sheet"
// @Success 200 {object} service.ImportOutcome
// @Failure 400 {object} errorResponse
// @Failure 413 {object} errorResponse
// @Router /jobs/{id}/import [post]
func (h *ImportHandler) Import(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response().Writer, req.Body, maxSheetSize)

	file, err := c.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "missing file"})
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	if file.Size > maxSheetSize {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxSheetSize))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	outcome, err := h.service.FromUpload(req.Context(), id, data)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, outcome)
}

// Sync pulls the published Google Sheet back and rebuilds the decks.
// @Summary Sync the published sheet
// @Description Export the job's Google Sheet from Drive and rebuild the decks from it
// @Tags sheets
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} service.ImportOutcome
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /jobs/{id}/sheet/sync [post]
func (h *ImportHandler) Sync(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	outcome, err := h.service.FromDrive(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, outcome)
}
