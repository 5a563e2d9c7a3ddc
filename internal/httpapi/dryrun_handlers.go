package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

type dryRunPayload struct {
	Channel string `json:"channel"`
	ESAMXML string `json:"esam_xml"`
}

func (s *Server) handleDryRun(w http.ResponseWriter, r *http.Request) {
	var p dryRunPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	res, err := s.pipeline.DryRun(r.Context(), p.Channel, strings.NewReader(p.ESAMXML))
	if err != nil {
		status, message := esamErrorStatus(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
