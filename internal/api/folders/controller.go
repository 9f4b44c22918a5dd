package folders

import (
	"net/http"

	"github.com/hbomb79/vidprobe/internal/api/util"
	"github.com/labstack/echo/v4"
)

var errListFailed = util.NewError(http.StatusInternalServerError, "FOLDER_LIST_FAILED", "Unable to list folders.")

type (
	Store interface {
		ListFolders() ([]string, error)
	}

	// Controller defines the routes used to enumerate the folders
	// available for scanning.
	Controller struct {
		store Store
	}
)

func New(store Store) *Controller {
	return &Controller{store: store}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/", controller.list)
}

// List returns the folder names available to scan, or an error suitable
// for returning from an echo handler.
func (controller *Controller) List() ([]string, error) {
	folders, err := controller.store.ListFolders()
	if err != nil {
		return nil, errListFailed.WithInternal(err)
	}

	return folders, nil
}

func (controller *Controller) list(ec echo.Context) error {
	folders, err := controller.List()
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, folders)
}
