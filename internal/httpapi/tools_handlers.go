package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/techexlab/pois/pkg/scte35"
)

type buildPayload struct {
	Command              string  `json:"command"`
	DurationSeconds      float64 `json:"duration_seconds,omitempty"`
	SegmentationTypeID   uint32  `json:"segmentation_type_id,omitempty"`
	SegmentationUPIDType uint32  `json:"segmentation_upid_type,omitempty"`
	SegmentationUPID     string  `json:"segmentation_upid,omitempty"`
	EventID              uint32  `json:"event_id,omitempty"`
}

func (s *Server) handleToolsBuild(w http.ResponseWriter, r *http.Request) {
	var p buildPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	opts := &scte35.BuildOptions{
		SegmentationTypeID: p.SegmentationTypeID,
		UPIDType:           p.SegmentationUPIDType,
		UPIDValue:          []byte(p.SegmentationUPID),
	}

	var sis *scte35.SpliceInfoSection
	var err error
	switch p.Command {
	case "time_signal":
		sis, err = scte35.BuildTimeSignalImmediate(opts)
	case "time_signal_immediate":
		sis, err = scte35.BuildTimeSignalImmediate(opts)
	case "splice_insert_out":
		eventID := p.EventID
		if eventID == 0 {
			eventID = 1
		}
		sis, err = scte35.BuildSpliceInsertOut(eventID, time.Duration(p.DurationSeconds*float64(time.Second)), opts)
	default:
		writeError(w, http.StatusBadRequest, "unknown command")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b64, err := sis.Base64()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"base64": b64})
}

type base64Payload struct {
	Base64 string `json:"base64"`
}

func (s *Server) handleToolsDecode(w http.ResponseWriter, r *http.Request) {
	var p base64Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	sis, err := scte35.DecodeBase64(p.Base64)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sis)
}

func (s *Server) handleToolsValidate(w http.ResponseWriter, r *http.Request) {
	var p base64Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	sis, err := scte35.DecodeBase64(p.Base64)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "info": sis})
}
