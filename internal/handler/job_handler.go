package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"pptxtrans/internal/model"
	"pptxtrans/internal/service"
)

type JobHandler struct {
	service        service.JobService
	maxUploadBytes int64
}

type jobResponse struct {
	ID            string           `json:"id"`
	FileName      string           `json:"fileName"`
	SourceLang    string           `json:"sourceLang"`
	TargetLangs   []string         `json:"targetLangs"`
	Status        string           `json:"status"`
	Progress      int              `json:"progress"`
	ErrorMessage  *string          `json:"errorMessage,omitempty"`
	SpreadsheetID *string          `json:"spreadsheetId,omitempty"`
	Results       []resultResponse `json:"results"`
	CreatedAt     string           `json:"createdAt"`
	UpdatedAt     string           `json:"updatedAt"`
	ExpiresAt     string           `json:"expiresAt"`
}

type resultResponse struct {
	FileID   string `json:"fileId"`
	Language string `json:"language"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	Kind     string `json:"kind"`
}

type publishResponse struct {
	SpreadsheetID string `json:"spreadsheetId"`
	URL           string `json:"url"`
}

func NewJobHandler(service service.JobService, maxUploadBytes int64) *JobHandler {
	return &JobHandler{service: service, maxUploadBytes: maxUploadBytes}
}

func (h *JobHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/jobs", h.Create)
	g.GET("/jobs", h.List)
	g.GET("/jobs/:id", h.Get)
	g.POST("/jobs/:id/cancel", h.Cancel)
	g.DELETE("/jobs/:id", h.Delete)
	g.GET("/jobs/:id/results/:fileId/download", h.Download)
	g.GET("/jobs/:id/sheet", h.Sheet)
	g.POST("/jobs/:id/sheet/publish", h.Publish)
}

// Create uploads a presentation and starts a translation job.
// @Summary Create a translation job
// @Description Upload a .pptx file and start translating it into the given languages
// @Tags jobs
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Presentation to translate"
// @Param languages formData string true "Comma-separated target language codes"
// @Success 201 {object} jobResponse
// @Failure 400 {object} errorResponse
// @Failure 413 {object} errorResponse
// @Router /jobs [post]
func (h *JobHandler) Create(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response().Writer, req.Body, h.maxUploadBytes)

	file, err := c.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "missing file"})
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	if file.Size > h.maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
	}

	languages := strings.Split(c.FormValue("languages"), ",")

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	job, err := h.service.Create(req.Context(), file.Filename, data, languages)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toJobResponse(job))
}

// List returns all translation jobs.
// @Summary List jobs
// @Description Get all translation jobs, newest first
// @Tags jobs
// @Produce json
// @Success 200 {array} jobResponse
// @Router /jobs [get]
func (h *JobHandler) List(c echo.Context) error {
	jobs, err := h.service.List(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	response := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		response = append(response, toJobResponse(job))
	}
	return c.JSON(http.StatusOK, response)
}

// Get returns a single job with its results.
// @Summary Get a job
// @Description Get a job's status, progress and output files
// @Tags jobs
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} jobResponse
// @Failure 404 {object} errorResponse
// @Router /jobs/{id} [get]
func (h *JobHandler) Get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	job, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toJobResponse(job))
}

// Cancel stops a running job.
// @Summary Cancel a job
// @Description Stop a running translation job
// @Tags jobs
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} jobResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /jobs/{id}/cancel [post]
func (h *JobHandler) Cancel(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	if err := h.service.Cancel(c.Request().Context(), id); err != nil {
		return writeServiceError(c, err)
	}
	job, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toJobResponse(job))
}

// Delete removes a job and its files.
// @Summary Delete a job
// @Description Delete a finished job, its results and stored files
// @Tags jobs
// @Param id path int true "Job ID"
// @Success 204
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /jobs/{id} [delete]
func (h *JobHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Download serves one translated deck.
// @Summary Download a result
// @Description Download a translated presentation by its file ID
// @Tags jobs
// @Produce application/vnd.openxmlformats-officedocument.presentationml.presentation
// @Param id path int true "Job ID"
// @Param fileId path string true "Result file ID"
// @Success 200 {file} file
// @Failure 404 {object} errorResponse
// @Router /jobs/{id}/results/{fileId}/download [get]
func (h *JobHandler) Download(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	result, err := h.service.Result(c.Request().Context(), id, c.Param("fileId"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Attachment(result.Path, result.FileName)
}

// Sheet renders the job's review sheet.
// @Summary Download the review sheet
// @Description Export the job's extracted text as an xlsx or csv review sheet
// @Tags sheets
// @Produce application/octet-stream
// @Param id path int true "Job ID"
// @Param format query string false "Sheet format: xlsx or csv" default(xlsx)
// @Success 200 {file} file
// @Failure 404 {object} errorResponse
// @Router /jobs/{id}/sheet [get]
func (h *JobHandler) Sheet(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	content, name, err := h.service.ReviewSheet(c.Request().Context(), id, c.QueryParam("format"))
	if err != nil {
		return writeServiceError(c, err)
	}
	c.Response().Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if strings.HasSuffix(name, ".csv") {
		contentType = "text/csv"
	}
	return c.Blob(http.StatusOK, contentType, content)
}

// Publish uploads the review sheet to Google Drive as a Sheet.
// @Summary Publish the review sheet
// @Description Upload the review sheet to Google Drive, converted to a Google Sheet
// @Tags sheets
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} publishResponse
// @Failure 404 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /jobs/{id}/sheet/publish [post]
func (h *JobHandler) Publish(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	spreadsheetID, err := h.service.PublishSheet(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, publishResponse{
		SpreadsheetID: spreadsheetID,
		URL:           "https://docs.google.com/spreadsheets/d/" + spreadsheetID,
	})
}

func toJobResponse(job model.Job) jobResponse {
	results := make([]resultResponse, 0, len(job.Results))
	for _, r := range job.Results {
		results = append(results, resultResponse{
			FileID:   r.FileID,
			Language: r.Language,
			FileName: r.FileName,
			Size:     r.Size,
			Kind:     r.Kind,
		})
	}
	return jobResponse{
		ID:            idToString(job.ID),
		FileName:      job.FileName,
		SourceLang:    job.SourceLang,
		TargetLangs:   job.TargetLangs,
		Status:        string(job.Status),
		Progress:      job.Progress,
		ErrorMessage:  strPtr(job.ErrorMessage),
		SpreadsheetID: strPtr(job.SpreadsheetID),
		Results:       results,
		CreatedAt:     job.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     job.UpdatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:     job.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
