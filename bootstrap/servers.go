package bootstrap

import (
	"net/http"

	"contact-indexer/config"
	"contact-indexer/logger"
	"contact-indexer/middleware"
	"contact-indexer/rest"
	"contact-indexer/usecase"
	appOtel "contact-indexer/utils/otel"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// newEchoServer creates the REST server with all routes mounted.
func newEchoServer(
	search *usecase.SearchDocumentsUsecase,
	suggest *usecase.SuggestValuesUsecase,
	indexer *usecase.IndexDocumentsUsecase,
	health *usecase.HealthUsecase,
	appCfg *config.Config,
	otelCfg appOtel.Config,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = appCfg.HTTP.ReadHeaderTimeout

	e.Use(echomw.Recover())
	if otelCfg.Enabled {
		e.Use(middleware.OTelStatus())
	}

	// Liveness probe, separate from the dependency-aware search health check.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	handler := rest.NewHandler(search, suggest, indexer, health, logger.Logger)
	handler.RegisterRoutes(e)

	return e
}
