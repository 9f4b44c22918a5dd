package scans

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hbomb79/vidprobe/internal/api/util"
	"github.com/hbomb79/vidprobe/internal/export"
	"github.com/hbomb79/vidprobe/internal/library"
	"github.com/hbomb79/vidprobe/internal/scan"
	"github.com/hbomb79/vidprobe/pkg/logger"
	"github.com/labstack/echo/v4"
)

var log = logger.Get("ScansController")

var (
	errFolderRequired  = util.NewError(http.StatusBadRequest, "FOLDER_REQUIRED", "A folder must be provided.")
	errFolderInvalid   = util.NewError(http.StatusBadRequest, "FOLDER_INVALID", "Folder must be inside the data root.")
	errFolderNotFound  = util.NewError(http.StatusNotFound, "FOLDER_NOT_FOUND", "Folder not found.")
	errSaveFailed      = util.NewError(http.StatusInternalServerError, "SERIALIZATION_FAILED", "Scan results could not be saved.")
	errScanInterrupted = util.NewError(http.StatusServiceUnavailable, "SCAN_INTERRUPTED", "Scan was interrupted before completion.")
	errScanFailed      = util.NewError(http.StatusInternalServerError, "SCAN_FAILED", "Scan failed.")
)

type (
	ScanRequest struct {
		Folder string `form:"folder" json:"folder" validate:"required"`
	}

	// ScanDto is the response body returned once a scan has completed
	// and its results have been saved.
	ScanDto struct {
		Message    string         `json:"message"`
		OutputFile string         `json:"output_file"`
		ScanID     uuid.UUID      `json:"scan_id"`
		Probed     int            `json:"probed"`
		Failures   []scan.Failure `json:"failures"`
	}

	Service interface {
		ScanFolder(ctx context.Context, folder string) (*library.Report, error)
	}

	Controller struct {
		validate *validator.Validate
		service  Service
	}
)

func New(validate *validator.Validate, service Service) *Controller {
	return &Controller{validate: validate, service: service}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.POST("/", controller.Scan)
}

// Scan binds the folder from the request body (form or JSON), scans it
// and persists the results inside of it. The scan is bound to the request
// context, so a client disconnecting will stop the scan.
func (controller *Controller) Scan(ec echo.Context) error {
	var request ScanRequest
	if err := ec.Bind(&request); err != nil {
		return errFolderRequired.WithInternal(err)
	}

	request.Folder = strings.TrimSpace(request.Folder)
	if err := controller.validate.Struct(request); err != nil {
		return errFolderRequired.WithInternal(err)
	}

	report, err := controller.service.ScanFolder(ec.Request().Context(), request.Folder)
	if err != nil {
		return toAPIError(err)
	}

	log.Emit(logger.SUCCESS, "Scan of '%s' saved to '%s'\n", request.Folder, report.OutputFile)
	failures := report.Failures
	if failures == nil {
		failures = []scan.Failure{}
	}

	return ec.JSON(http.StatusOK, ScanDto{
		Message:    "Scan complete",
		OutputFile: report.OutputFile,
		ScanID:     report.ScanID,
		Probed:     report.Probed,
		Failures:   failures,
	})
}

func toAPIError(err error) error {
	switch {
	case errors.Is(err, library.ErrFolderInvalid):
		return errFolderInvalid.WithInternal(err)
	case errors.Is(err, library.ErrFolderNotFound):
		return errFolderNotFound.WithInternal(err)
	case errors.Is(err, export.ErrSerializationFailed):
		return errSaveFailed.WithInternal(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errScanInterrupted.WithInternal(err)
	default:
		return errScanFailed.WithInternal(err)
	}
}
