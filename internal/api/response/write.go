package response

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/backgammon-go/internal/model"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// State writes a participant's projection. Projections go stale on the next
// transition so they are never cached.
func State(w http.ResponseWriter, status int, p model.Projection) {
	w.Header().Set("Cache-Control", "no-store")
	JSON(w, status, p)
}
