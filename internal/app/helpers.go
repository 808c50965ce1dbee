package app

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/klabast/wb-services/groupie-dates/internal/dates"
	"go.uber.org/zap"
)

// NextID returns one more than the largest numeric ID in records
func NextID(records []dates.DateRecord) dates.ID {
	var max int64
	for _, rec := range records {
		if n, ok := rec.ID.Int(); ok && n > max {
			max = n
		}
	}
	return dates.ID(strconv.FormatInt(max+1, 10))
}

// writeJSON encodes v before the status line goes out, so an encoding
// failure still turns into a 500.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Error encoding response", zap.Error(err))
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Error("Error writing response", zap.Error(err))
	}
}
