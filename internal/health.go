package internal

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/2beens/kegeltrainer/pkg"

	log "github.com/sirupsen/logrus"
)

// HealthHandler answers the connectivity probes of the trainer clients.
type HealthHandler struct {
	versionInfo string
}

func NewHealthHandler(versionInfo string) *HealthHandler {
	return &HealthHandler{
		versionInfo: versionInfo,
	}
}

func (handler *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
		Version   string `json:"version,omitempty"`
	}{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   handler.versionInfo,
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal health response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
