package api

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/vidprobe/internal/api/folders"
	"github.com/hbomb79/vidprobe/internal/api/scans"
	"github.com/hbomb79/vidprobe/internal/probe"
	"github.com/hbomb79/vidprobe/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var log = logger.Get("API")

//go:embed templates/*.html
var templateFS embed.FS

type (
	RestConfig struct {
		HostAddr string
		DataRoot string
	}

	// Library represents the union of the controller requirements
	Library interface {
		folders.Store
		scans.Service
	}

	// The RestGateway is a thin-wrapper around the Echo HTTP router. It's sole
	// responsibility is to create the routes exposed and to serve them.
	RestGateway struct {
		config           *RestConfig
		ec               *echo.Echo
		folderController *folders.Controller
		scanController   *scans.Controller
	}

	templateRenderer struct {
		templates *template.Template
	}
)

func (renderer *templateRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return renderer.templates.ExecuteTemplate(w, name, data)
}

// NewRestGateway constructs the Echo router and populates it with all the
// routes defined by the controllers.
func NewRestGateway(config *RestConfig, library Library) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true
	ec.HTTPErrorHandler = errorHandler(ec.DefaultHTTPErrorHandler)
	ec.Renderer = &templateRenderer{templates: template.Must(template.ParseFS(templateFS, "templates/*.html"))}

	gateway := &RestGateway{
		config:           config,
		ec:               ec,
		folderController: folders.New(library),
		scanController:   scans.New(validator.New(), library),
	}

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Pre(middleware.AddTrailingSlash())

	ec.GET("/", gateway.index)
	ec.POST("/scan/", gateway.scanController.Scan)

	gateway.folderController.SetRoutes(ec.Group("/api/v1/folders"))
	gateway.scanController.SetRoutes(ec.Group("/api/v1/scans"))

	return gateway
}

// index renders the HTML form used to select a folder to scan.
func (gateway *RestGateway) index(ec echo.Context) error {
	folderNames, err := gateway.folderController.List()
	if err != nil {
		return err
	}

	return ec.Render(http.StatusOK, "index.html", map[string]any{
		"Folders":    folderNames,
		"DataRoot":   gateway.config.DataRoot,
		"Extensions": strings.Join(probe.VideoExtensions(), " "),
	})
}

// ServeHTTP allows the gateway to be used directly as a http.Handler.
func (gateway *RestGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gateway.ec.ServeHTTP(w, r)
}

// Run starts the HTTP server, blocking until the context is cancelled or
// the server fails. Cancellation of the parent context is not reported as
// an error.
func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	defer ctxCancel(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Infof("Listening on %s\n", gateway.config.HostAddr)
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil {
			ctxCancel(err)
		}
	}()

	<-ctx.Done()
	if err := gateway.ec.Close(); err != nil {
		log.Emit(logger.WARNING, "Failed to close HTTP server: %s\n", err)
	}
	<-done

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}
