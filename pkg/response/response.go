package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes the payload as-is. Clients depend on the exact body shapes
// (e.g. {"url": ...}, {"requiresTwoFactor": ...}), so there is no envelope.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		data = map[string]interface{}{}
	}
	_ = json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
