package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/klabast/wb-services/groupie-dates/internal/dates"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const exportBaseName = "groupie_dates"

// HandleDownload exports all records as CSV, JSON or YAML
// Query param: format (csv, json, yaml)
func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	switch format {
	case "csv", "json", "yaml":
	default:
		http.Error(w, ErrInvalidFormat, http.StatusBadRequest)
		return
	}

	records, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("Error listing dates", zap.Error(err))
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}

	switch format {
	case "csv":
		s.GenerateCSV(w, records)
	case "json":
		s.GenerateJSON(w, records)
	case "yaml":
		s.GenerateYAML(w, records)
	}
}

// GenerateCSV writes one row per data field: id, key, value.
// Records without data get a single row with empty key and value.
func (s *Server) GenerateCSV(w http.ResponseWriter, records []dates.DateRecord) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", exportBaseName))

	cw := csv.NewWriter(w)
	rows := [][]string{{"id", "key", "value"}}
	for _, rec := range records {
		if rec.Data.Len() == 0 {
			rows = append(rows, []string{rec.ID.String(), "", ""})
			continue
		}
		for _, f := range rec.Data.Fields() {
			rows = append(rows, []string{rec.ID.String(), f.Key, dates.DisplayText(f.Value)})
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		s.logger.Error("Error writing CSV export", zap.Error(err))
	}
}

// GenerateJSON writes the records as a JSON attachment
func (s *Server) GenerateJSON(w http.ResponseWriter, records []dates.DateRecord) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", exportBaseName))

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		s.logger.Error("Error encoding JSON export", zap.Error(err))
		http.Error(w, ErrFailedToExport, http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("Error writing JSON export", zap.Error(err))
	}
}

// GenerateYAML writes the records as a YAML attachment
func (s *Server) GenerateYAML(w http.ResponseWriter, records []dates.DateRecord) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.yaml", exportBaseName))

	data, err := yaml.Marshal(records)
	if err != nil {
		s.logger.Error("Error encoding YAML export", zap.Error(err))
		http.Error(w, ErrFailedToExport, http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("Error writing YAML export", zap.Error(err))
	}
}
