package api

import (
	"net/http"

	"github.com/ardiwira/greenhouse-hub/api/middleware"
	"github.com/ardiwira/greenhouse-hub/api/resources"
	"github.com/ardiwira/greenhouse-hub/internal/exporter"
	"github.com/ardiwira/greenhouse-hub/internal/statscache"
	"github.com/gorilla/mux"
)

type Router struct {
	router    *mux.Router
	resources *resources.Resources
}

// NewRouter wires the export and file-registry resources onto /api/v1.
func NewRouter(engine *exporter.Engine, stats *statscache.Cache, allowedOrigins []string) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: resources.NewResources(engine, stats),
	}

	r.router.Use(middleware.RequestLogging)
	r.router.Use(middleware.CORS(allowedOrigins))

	r.setupRoutes()
	return r
}

// SetHealthCheck installs the health handler before routes are served.
func (r *Router) SetHealthCheck(h func(w http.ResponseWriter, req *http.Request)) {
	r.resources.SetHealthCheck(h)
	r.router.PathPrefix("/api/v1/health").HandlerFunc(h).Methods(http.MethodGet)
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Export files registry. Registered before the {kind} routes so
	// /export/files never matches a kind pattern.
	files := api.PathPrefix("/export/files").Subrouter()
	files.HandleFunc("", r.resources.Files.ListExportedFiles).Methods(http.MethodGet)
	files.HandleFunc("/{id:[0-9]+}/download", r.resources.Files.DownloadExportedFile).Methods(http.MethodGet)
	files.HandleFunc("/{id:[0-9]+}", r.resources.Files.DeleteExportedFile).Methods(http.MethodDelete)

	// On-demand exports and dashboard data
	api.HandleFunc("/export/stats", r.resources.Export.GetExportStats).Methods(http.MethodGet)
	api.HandleFunc("/export/{kind}-sensors-data", r.resources.Export.GetSensorsData).Methods(http.MethodGet)
	api.HandleFunc("/export/{kind}-sensors", r.resources.Export.ExportSensors).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
