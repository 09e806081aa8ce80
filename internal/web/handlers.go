package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/coltype/internal/core"
	"github.com/JonMunkholm/coltype/internal/tabular"
	"github.com/JonMunkholm/coltype/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// pageRowLimit caps the rows rendered on the dataset page.
const pageRowLimit = 200

// multipartMemory is the in-memory part of multipart parsing; the rest spills to disk.
const multipartMemory = 32 << 20

// DatasetResponse is the body returned for uploads, reads and overrides.
type DatasetResponse struct {
	DatasetID        string            `json:"dataset_id"`
	FileName         string            `json:"file_name"`
	ProcessedData    []map[string]any  `json:"processed_data"`
	ColumnsWithTypes []core.ColumnType `json:"columns_with_types"`
	Message          string            `json:"message,omitempty"`
	Outcome          string            `json:"outcome,omitempty"`
}

// TypesResponse is the body of GET /api/datasets/{id}/types.
type TypesResponse struct {
	DatasetID        string            `json:"dataset_id"`
	ColumnsWithTypes []core.ColumnType `json:"columns_with_types"`
}

type overrideRequest struct {
	Column  string `json:"column"`
	NewType string `json:"new_type"`
}

func newDatasetResponse(ds *core.Dataset) DatasetResponse {
	cols := ds.Columns()
	return DatasetResponse{
		DatasetID:        ds.ID,
		FileName:         ds.FileName,
		ProcessedData:    core.Records(cols),
		ColumnsWithTypes: core.ColumnTypes(cols),
	}
}

// handleUpload accepts a multipart file in field "datafile".
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	if r.ContentLength > maxSize {
		respondError(w, r, errFileTooLarge, http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, errFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("datafile")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !tabular.Supported(header.Filename) {
		err := fmt.Errorf("%w: %s", tabular.ErrUnsupportedFormat, header.Filename)
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}

	ds, err := s.service.Upload(r.Context(), header.Filename, data)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, newDatasetResponse(ds))
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Dataset(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, newDatasetResponse(ds))
}

func (s *Server) handleLatestDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Latest(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, newDatasetResponse(ds))
}

func (s *Server) handleGetTypes(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Dataset(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, TypesResponse{DatasetID: ds.ID, ColumnsWithTypes: ds.Types()})
}

// handleOverride applies {"column", "new_type"} to a dataset.
func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")

	var req overrideRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err), http.StatusBadRequest)
		return
	}
	if req.Column == "" || req.NewType == "" {
		respondError(w, r, fmt.Errorf("%w: column and new_type are required", errBadRequest), http.StatusBadRequest)
		return
	}

	res, err := s.service.Override(r.Context(), id, req.Column, req.NewType)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	ds, err := s.service.Dataset(r.Context(), id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	resp := newDatasetResponse(ds)
	resp.Outcome = res.Outcome.String()
	resp.Message = fmt.Sprintf("Column %q is now %s", req.Column, res.Column.Type)
	if res.Outcome == core.OutcomeCoerced {
		resp.Message += fmt.Sprintf(" (%d value(s) normalised)", res.Column.Coerced)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"types": typeLabels()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"analyses": s.service.LimiterStatus(),
	})
}

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	latestID := ""
	if ds, err := s.service.Latest(r.Context()); err == nil {
		latestID = ds.ID
	} else if !errors.Is(err, core.ErrDatasetNotFound) {
		respondError(w, r, err, statusFor(err))
		return
	}
	render(w, r, templates.Layout("Column types", templates.Index(latestID, typeLabels())))
}

// handleDatasetPage renders a dataset as an HTML table.
func (s *Server) handleDatasetPage(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Dataset(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	render(w, r, templates.Layout(ds.FileName, templates.Dataset(datasetView(ds))))
}

func datasetView(ds *core.Dataset) templates.DatasetView {
	cols := ds.Columns()
	overrides := ds.Overrides()

	view := templates.DatasetView{
		ID:         ds.ID,
		FileName:   ds.FileName,
		UploadedAt: ds.UploadedAt,
		TotalRows:  ds.RowCount(),
	}
	for _, c := range cols {
		inferred, _ := ds.InferredType(c.Name)
		_, overridden := overrides[c.Name]
		view.Columns = append(view.Columns, templates.ColumnView{
			Name:       c.Name,
			Type:       c.Type.String(),
			Inferred:   inferred.String(),
			Overridden: overridden,
		})
	}

	n := min(view.TotalRows, pageRowLimit)
	for i := 0; i < n; i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			if i < len(c.Values) {
				row[j] = displayValue(c.Values[i])
			}
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

func displayValue(v core.Value) string {
	out := core.FormatValue(v)
	if out == nil {
		return ""
	}
	return fmt.Sprint(out)
}

func typeLabels() []string {
	types := core.AllTypes()
	labels := make([]string, len(types))
	for i, t := range types {
		labels[i] = t.String()
	}
	return labels
}

func render(w http.ResponseWriter, r *http.Request, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		respondError(w, r, fmt.Errorf("render page: %w", err), http.StatusInternalServerError)
	}
}
