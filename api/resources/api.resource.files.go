// FilePath: api/resources/api.resource.files.go
package resources

import (
	"io"
	"net/http"
	"strconv"

	"github.com/ardiwira/greenhouse-hub/internal/errors"
	"github.com/ardiwira/greenhouse-hub/internal/exporter"
	"github.com/ardiwira/greenhouse-hub/internal/models"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// FileHandlers encapsulates the export-file registry HTTP handlers
type FileHandlers struct {
	engine *exporter.Engine
}

// @Summary List exported files
// @Description One page of export file registry rows, newest first
// @Tags files
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Param sensor_name query string false "Sensor name substring filter"
// @Param date query string false "Exact archive period (YYYY-MM)"
// @Success 200 {object} models.Paginated
// @Router /export/files [get]
func (h *FileHandlers) ListExportedFiles(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var query models.ExportFileQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	page, perPage := models.NormalizePage(query.Page, query.PerPage)
	total, records, err := h.engine.ListFiles(r.Context(), query.SensorName, query.Date, page, perPage)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithData(w, http.StatusOK, models.NewPaginated(records, page, perPage, total))
}

// @Summary Download an exported file
// @Description Stream the stored spreadsheet and increment its download counter
// @Tags files
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Export file ID"
// @Success 200 {file} file
// @Failure 404 {object} errors.APIError
// @Router /export/files/{id}/download [get]
func (h *FileHandlers) DownloadExportedFile(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	id, apiErr := fileIDFromVars(mux.Vars(r))
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	record, reader, err := h.engine.OpenFile(r.Context(), id)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+record.FileName()+`"`)
	w.Header().Set("Content-Length", strconv.FormatInt(record.FileSize, 10))
	if _, err := io.Copy(w, reader); err != nil {
		// Counter was already incremented; an abandoned stream keeps it.
		nuts.L.Errorf("[FileHandler] Failed to stream export file %d: %v", id, err)
	}
}

// @Summary Delete an exported file
// @Description Remove the stored spreadsheet (if present) and its registry row
// @Tags files
// @Produce json
// @Param id path int true "Export file ID"
// @Success 200 {object} resources.dataEnvelope
// @Failure 404 {object} errors.APIError
// @Router /export/files/{id} [delete]
func (h *FileHandlers) DeleteExportedFile(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	id, apiErr := fileIDFromVars(mux.Vars(r))
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	if err := h.engine.DeleteFile(r.Context(), id); err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, dataEnvelope{Success: true, Message: "File deleted successfully"})
}

func fileIDFromVars(vars map[string]string) (int64, *errors.APIError) {
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("invalid file id", err)
	}
	return id, nil
}
