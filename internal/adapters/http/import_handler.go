package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/maghraz/crm/internal/application/services"
	"github.com/maghraz/crm/internal/infrastructure/logger"
)

// ImportHandler handles CSV import and template export requests
type ImportHandler struct {
	importService *services.ImportService
	logger        *logger.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importService *services.ImportService, logger *logger.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		logger:        logger,
	}
}

// Import accepts a multipart CSV upload and returns the accepted row count.
func (h *ImportHandler) Import(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot open uploaded file")
	}
	defer file.Close()

	count, err := h.importService.ImportCSV(file)
	if err != nil {
		h.logger.Errorw("CSV import failed", "error", err, "filename", fileHeader.Filename)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, ImportResponse{Imported: count})
}

// Template streams the header-only CSV template download.
func (h *ImportHandler) Template(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="maghraz_crm_template.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	if err := h.importService.WriteTemplate(c.Response()); err != nil {
		h.logger.Errorw("Template export failed", "error", err)
		return err
	}

	return nil
}

// ImportResponse reports the outcome of a CSV import.
type ImportResponse struct {
	Imported int `json:"imported"`
}
