package httputil

import (
	"encoding/json"
	"log"
	"net/http"

	"healthchat-backend/internal/models"
)

// RespondJSON writes a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already written; just log.
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// RespondError writes a JSON error response with the given status code and message.
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondJSON(w, statusCode, models.ErrorResponse{Error: message})
}

// RespondErrorWithReason includes a machine-readable reason code alongside
// the message (used for policy denials).
func RespondErrorWithReason(w http.ResponseWriter, statusCode int, message, reason string) {
	RespondJSON(w, statusCode, models.ErrorResponse{Error: message, Reason: reason})
}
