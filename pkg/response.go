package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
	CSV  string
}{
	JSON: "application/json",
	Text: "text/plain",
	CSV:  "text/csv",
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Add("Content-Type", contentType)
	}
	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteResponseBytesOK(w http.ResponseWriter, contentType string, message []byte) {
	WriteResponseBytes(w, contentType, message, http.StatusOK)
}

func WriteJSONResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.JSON, message, http.StatusOK)
}

// ApiEnvelope is the JSON shape of every API response.
type ApiEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WriteApiData writes a success envelope. A negative count omits the
// count field.
func WriteApiData(w http.ResponseWriter, data interface{}, count int) {
	envelope := ApiEnvelope{
		Success: true,
		Data:    data,
	}
	if count >= 0 {
		envelope.Count = &count
	}
	respJson, err := json.Marshal(envelope)
	if err != nil {
		log.Errorf("marshal api response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytesOK(w, ContentType.JSON, respJson)
}

// WriteApiError writes a failure envelope with the given status code.
func WriteApiError(w http.ResponseWriter, statusCode int, errName, message string) {
	respJson, err := json.Marshal(ApiEnvelope{
		Success: false,
		Error:   errName,
		Message: message,
	})
	if err != nil {
		log.Errorf("marshal api error response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respJson, statusCode)
}
