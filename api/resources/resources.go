// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/ardiwira/greenhouse-hub/internal/errors"
	"github.com/ardiwira/greenhouse-hub/internal/exporter"
	"github.com/ardiwira/greenhouse-hub/internal/statscache"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Export      *ExportHandlers
	Files       *FileHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance. The stats cache may be nil,
// in which case stats are always computed from the database.
func NewResources(engine *exporter.Engine, stats *statscache.Cache) *Resources {
	return &Resources{
		Export: &ExportHandlers{engine: engine, stats: stats},
		Files:  &FileHandlers{engine: engine},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// Helper functions

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// dataEnvelope is the success payload shape shared by all JSON endpoints.
type dataEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondWithData(w http.ResponseWriter, code int, payload any) {
	respondWithJSON(w, code, dataEnvelope{Success: true, Data: payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}
