// Package sankey serves the flow generators over HTTP.
package sankey

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"financial_sankey/pkg/core/flow"
	"financial_sankey/pkg/core/report"
	"financial_sankey/pkg/core/source"
	"financial_sankey/pkg/core/table"
	"financial_sankey/pkg/core/validate"
)

const (
	ServiceName = "Financial Sankey Diagram Generator"
	minYear     = 2000
	maxYear     = 2030
)

// Handler holds dependencies for the sankey endpoints.
type Handler struct {
	Generator  *report.Generator
	Fetcher    report.Fetcher
	CORSOrigin string
	Log        logrus.FieldLogger
}

// NewHandler creates a handler. fetcher may be nil, in which case only the
// table upload and health endpoints are usable.
func NewHandler(gen *report.Generator, fetcher report.Fetcher, corsOrigin string, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	return &Handler{Generator: gen, Fetcher: fetcher, CORSOrigin: corsOrigin, Log: log}
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/generate-sankey", h.HandleGenerate)
	mux.HandleFunc("/api/generate-all-reports", h.HandleGenerateAll)
	mux.HandleFunc("/api/generate-from-table", h.HandleGenerateFromTable)
	mux.HandleFunc("/api/health", h.HandleHealth)
}

type GenerateRequest struct {
	Symbol     string          `json:"symbol"`
	ReportType string          `json:"report_type"`
	Period     string          `json:"period"`
	Year       json.RawMessage `json:"year"`
}

type GenerateResponse struct {
	Success      bool   `json:"success"`
	ID           string `json:"id"`
	Data         string `json:"data"`
	Symbol       string `json:"symbol"`
	ReportType   string `json:"report_type"`
	Period       string `json:"period"`
	Year         int    `json:"year"`
	SourceColumn string `json:"source_column,omitempty"`
}

type GenerateAllResponse struct {
	Success bool              `json:"success"`
	Data    map[string]string `json:"data"`
	IDs     map[string]string `json:"ids"`
	Checks  validate.Report   `json:"checks"`
	Symbol  string            `json:"symbol"`
	Period  string            `json:"period"`
	Year    int               `json:"year"`
}

type TableRequest struct {
	ReportType string `json:"report_type"`
	Format     string `json:"format"`
	Content    string `json:"content"`
	Column     int    `json:"column"`
}

type TableResponse struct {
	Success    bool   `json:"success"`
	ID         string `json:"id"`
	Data       string `json:"data"`
	ReportType string `json:"report_type"`
	Column     string `json:"column"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// preflight sets CORS headers and reports whether the request still needs
// handling.
func (h *Handler) preflight(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Access-Control-Allow-Origin", h.CORSOrigin)
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return false
	}
	if !strings.Contains(methods, r.Method) {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.WithError(err).WithField("status", status).Warn("writing response failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// HandleGenerate renders one statement of one company.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if !h.preflight(w, r, http.MethodPost) {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	period := strings.TrimSpace(req.Period)
	if symbol == "" {
		h.writeError(w, http.StatusBadRequest, "Stock symbol is required")
		return
	}
	kind, err := report.ParseKind(req.ReportType)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid report type. Must be: balance, income, or cashflow")
		return
	}
	if period == "" {
		h.writeError(w, http.StatusBadRequest, "Period is required")
		return
	}
	year, err := parseYear(req.Year)
	if err != nil || year < minYear || year > maxYear {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid year. Must be between %d and %d", minYear, maxYear))
		return
	}
	if h.Fetcher == nil {
		h.writeError(w, http.StatusServiceUnavailable, "No statement source configured")
		return
	}

	res, err := h.Generator.Fetch(r.Context(), h.Fetcher, kind, report.Request{Symbol: symbol, Period: period, Year: year})
	if err != nil {
		if errors.Is(err, source.ErrNoStatement) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.Log.WithError(err).WithField("report_id", res.ID).Error("generating sankey failed")
		h.writeError(w, http.StatusInternalServerError, "Server error: "+err.Error())
		return
	}
	if !res.OK() {
		msg := res.Flows
		if msg == "" {
			msg = "Failed to generate Sankey data"
		}
		h.writeError(w, http.StatusInternalServerError, msg)
		return
	}

	h.writeJSON(w, http.StatusOK, GenerateResponse{
		Success:      true,
		ID:           res.ID,
		Data:         res.Flows,
		Symbol:       symbol,
		ReportType:   string(kind),
		Period:       period,
		Year:         year,
		SourceColumn: res.Source,
	})
}

// HandleGenerateAll renders all three statements. Per-report failures are
// returned in-band and do not fail the request.
func (h *Handler) HandleGenerateAll(w http.ResponseWriter, r *http.Request) {
	if !h.preflight(w, r, http.MethodPost) {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "No data provided")
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	period := strings.TrimSpace(req.Period)
	year, err := parseYear(req.Year)
	if symbol == "" || period == "" || err != nil || year == 0 {
		h.writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	if h.Fetcher == nil {
		h.writeError(w, http.StatusServiceUnavailable, "No statement source configured")
		return
	}

	results, err := h.Generator.GenerateAll(r.Context(), h.Fetcher, report.Request{Symbol: symbol, Period: period, Year: year})
	if err != nil {
		h.Log.WithError(err).Error("generating all reports failed")
		h.writeError(w, http.StatusInternalServerError, "Server error: "+err.Error())
		return
	}

	resp := GenerateAllResponse{
		Success: true,
		Data:    make(map[string]string, len(results)),
		IDs:     make(map[string]string, len(results)),
		Checks:  h.Generator.Check(results),
		Symbol:  symbol,
		Period:  period,
		Year:    year,
	}
	for kind, res := range results {
		resp.Data[string(kind)] = res.Flows
		resp.IDs[string(kind)] = res.ID
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGenerateFromTable renders an uploaded statement table.
func (h *Handler) HandleGenerateFromTable(w http.ResponseWriter, r *http.Request) {
	if !h.preflight(w, r, http.MethodPost) {
		return
	}

	var req TableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "No data provided")
		return
	}
	kind, err := report.ParseKind(req.ReportType)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid report type. Must be: balance, income, or cashflow")
		return
	}
	format, err := table.ParseFormat(req.Format)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := table.Parse(strings.NewReader(req.Content), format)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, table.ErrNoTable) {
			status = http.StatusUnprocessableEntity
		}
		h.writeError(w, status, err.Error())
		return
	}

	// A table without value columns is passed through so the builder reports
	// it in-band.
	var header string
	if len(t.Columns) >= 2 {
		column := req.Column
		if column <= 0 {
			column = 1
		}
		if column >= len(t.Columns) {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("column %d out of range", column))
			return
		}
		header = t.Columns[column]
		t = t.Project(column, header)
	}

	id := uuid.NewString()
	out, err := h.Generator.Generate(kind, t)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.Log.WithFields(logrus.Fields{"report_id": id, "kind": kind, "format": format}).Info("table report generated")
	if out == "" || flow.IsError(out) {
		msg := out
		if msg == "" {
			msg = "Failed to generate Sankey data"
		}
		h.writeError(w, http.StatusInternalServerError, msg)
		return
	}

	h.writeJSON(w, http.StatusOK, TableResponse{
		Success:    true,
		ID:         id,
		Data:       out,
		ReportType: string(kind),
		Column:     header,
	})
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.preflight(w, r, http.MethodGet) {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}

// parseYear accepts 2024 or "2024".
func parseYear(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, errors.New("year is required")
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid year: %w", err)
	}
	return strconv.Atoi(strings.TrimSpace(s))
}
