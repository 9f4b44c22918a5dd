package api

import (
	"errors"
	"net/http"

	"github.com/hbomb79/vidprobe/internal/api/util"
	"github.com/labstack/echo/v4"
)

// errorHandler returns an echo HTTP error handler which renders any Error
// returned from a handler as JSON, deferring to the fallback for any other
// kind of error.
func errorHandler(fallback echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, ec echo.Context) {
		var apiErr *util.Error
		if !errors.As(err, &apiErr) {
			fallback(err, ec)
			return
		}

		if ec.Response().Committed {
			return
		}

		if apiErr.Status >= http.StatusInternalServerError {
			log.Errorf("%s %s failed: %s\n", ec.Request().Method, ec.Request().URL.Path, apiErr)
		} else {
			log.Debugf("%s %s rejected: %s\n", ec.Request().Method, ec.Request().URL.Path, apiErr)
		}

		if ec.Request().Method == http.MethodHead {
			err = ec.NoContent(apiErr.Status)
		} else {
			err = ec.JSON(apiErr.Status, apiErr)
		}
		if err != nil {
			log.Errorf("Failed to write error response: %s\n", err)
		}
	}
}
