package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "pptxtrans/docs"
	"pptxtrans/internal/handler"
)

func NewRouter(
	jobHandler *handler.JobHandler,
	importHandler *handler.ImportHandler,
	languageHandler *handler.LanguageHandler,
	settingsHandler *handler.SettingsHandler,
	staticDir string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(RequestLoggerMiddleware())

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	jobHandler.RegisterRoutes(api)
	importHandler.RegisterRoutes(api)
	languageHandler.RegisterRoutes(api)
	settingsHandler.RegisterRoutes(api)

	registerStatic(e, staticDir)

	return e
}
