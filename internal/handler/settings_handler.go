package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pptxtrans/internal/model"
	"pptxtrans/internal/service"
)

type SettingsHandler struct {
	service service.SettingsService
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type cacheClearResponse struct {
	Deleted int64 `json:"deleted"`
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

func (h *SettingsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/settings", h.Get)
	g.PUT("/settings", h.Update)
	g.POST("/settings/cache/clear", h.ClearCache)
}

// Get returns the translation settings.
// @Summary Get settings
// @Description Get the translation, Google and LLM settings; secret values are masked
// @Tags settings
// @Produce json
// @Success 200 {array} settingResponse
// @Router /settings [get]
func (h *SettingsHandler) Get(c echo.Context) error {
	settings, err := h.service.List(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toSettingResponses(settings))
}

// Update stores translation settings.
// @Summary Update settings
// @Description Update one or more translation settings
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body map[string]string true "Setting keys and values"
// @Success 200 {array} settingResponse
// @Failure 400 {object} errorResponse
// @Router /settings [put]
func (h *SettingsHandler) Update(c echo.Context) error {
	var req map[string]string
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	if err := h.service.Update(c.Request().Context(), req); err != nil {
		return writeServiceError(c, err)
	}
	settings, err := h.service.List(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toSettingResponses(settings))
}

// ClearCache drops every cached translation.
// @Summary Clear translation cache
// @Description Delete all cached translations; subsequent jobs hit the engine again
// @Tags settings
// @Produce json
// @Success 200 {object} cacheClearResponse
// @Router /settings/cache/clear [post]
func (h *SettingsHandler) ClearCache(c echo.Context) error {
	deleted, err := h.service.ClearTranslationCache(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, cacheClearResponse{Deleted: deleted})
}

func toSettingResponses(settings []model.Setting) []settingResponse {
	out := make([]settingResponse, 0, len(settings))
	for _, s := range settings {
		out = append(out, settingResponse{Key: s.Key, Value: s.Value})
	}
	return out
}
