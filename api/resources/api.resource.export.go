// FilePath: api/resources/api.resource.export.go
package resources

import (
	"net/http"
	"strconv"

	"github.com/ardiwira/greenhouse-hub/internal/errors"
	"github.com/ardiwira/greenhouse-hub/internal/exporter"
	"github.com/ardiwira/greenhouse-hub/internal/models"
	"github.com/ardiwira/greenhouse-hub/internal/statscache"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandlers encapsulates the on-demand export HTTP handlers
type ExportHandlers struct {
	engine *exporter.Engine
	stats  *statscache.Cache
}

// @Summary Export sensor readings to a spreadsheet
// @Description Stream an xlsx export of one sensor kind, or all kinds as a multi-sheet workbook, bounded by an optional date range
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param kind path string true "Sensor kind (temperature|soil-moisture|light|turbidity|all)"
// @Param start_date query string false "Inclusive start day (YYYY-MM-DD)"
// @Param end_date query string false "Inclusive end day (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} errors.APIError
// @Router /export/{kind}-sensors [get]
func (h *ExportHandlers) ExportSensors(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := nuts.NID("req", 12)

	kind, apiErr := kindFromVars(vars)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	dateRange, err := models.NewDateRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid date range", err).WithRequestID(requestID))
		return
	}

	buf, filename, err := h.engine.Export(r.Context(), kind, dateRange)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		nuts.L.Errorf("[ExportHandler] Failed to stream export %s: %v", filename, err)
	}
}

// @Summary Export statistics
// @Description Per-kind row count, newest reading timestamp and distinct sensor names
// @Tags export
// @Produce json
// @Success 200 {object} models.ExportStats
// @Router /export/stats [get]
func (h *ExportHandlers) GetExportStats(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	if h.stats != nil {
		if cached, ok := h.stats.Get(r.Context()); ok {
			respondWithData(w, http.StatusOK, cached)
			return
		}
	}

	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}
	if h.stats != nil {
		h.stats.Set(r.Context(), stats)
	}

	respondWithData(w, http.StatusOK, stats)
}

// @Summary Paginated raw readings
// @Description One page of readings for the dashboard tables, newest first
// @Tags export
// @Produce json
// @Param kind path string true "Sensor kind"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Param start_date query string false "Inclusive start day (YYYY-MM-DD)"
// @Param end_date query string false "Inclusive end day (YYYY-MM-DD)"
// @Param sensor_name query string false "Sensor name substring filter"
// @Success 200 {object} models.Paginated
// @Failure 400 {object} errors.APIError
// @Router /export/{kind}-sensors-data [get]
func (h *ExportHandlers) GetSensorsData(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := nuts.NID("req", 12)

	kind, apiErr := kindFromVars(vars)
	if apiErr != nil || kind == models.KindAll {
		respondWithError(w, errors.NewValidationError("unknown sensor kind", nil).WithRequestID(requestID))
		return
	}

	var query models.ReadingQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}
	dateRange, err := models.NewDateRange(query.StartDate, query.EndDate)
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid date range", err).WithRequestID(requestID))
		return
	}

	page, perPage := models.NormalizePage(query.Page, query.PerPage)
	total, rows, err := h.engine.ReadingsPage(r.Context(), kind, dateRange, query.SensorName, page, perPage)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithData(w, http.StatusOK, models.NewPaginated(rows, page, perPage, total))
}

// kindFromVars resolves the {kind} route segment, accepting the four
// physical slugs plus "all".
func kindFromVars(vars map[string]string) (models.SensorKind, *errors.APIError) {
	slug := vars["kind"]
	if slug == "all" {
		return models.KindAll, nil
	}
	kind, ok := models.KindFromSlug(slug)
	if !ok {
		return "", errors.NewValidationError("unknown sensor kind", nil)
	}
	return kind, nil
}
